package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	engineConfigFile string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aurora",
	Short: "Aurora engine - ETF scoring and monthly contribution allocation",
	Long: `Aurora Engine CLI

Redis 큐에서 작업을 꺼내 ETF 스코어링과 월 적립(PAC) 배분 제안을 실행합니다.
실행 상태는 PostgreSQL의 engine.runs에 기록됩니다.

Usage:
  go run ./cmd/aurora [command]

Examples:
  go run ./cmd/aurora worker start
  go run ./cmd/aurora engine run --user <id> --type full
  go run ./cmd/aurora runs show <run-id>
  go run ./cmd/aurora queue stats`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&engineConfigFile, "config", "", "engine profile YAML (e.g. config/engine.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
