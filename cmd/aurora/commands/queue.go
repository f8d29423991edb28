package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// queueCmd represents the queue command
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "작업 큐 상태",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "대기 / 진행 / dead 건수",
	Long: `Redis 큐의 wait, active, dead 리스트 길이를 출력합니다.

Example:
  go run ./cmd/aurora queue stats`,
	RunE: runQueueStats,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueStatsCmd)
}

func runQueueStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireQueue(); err != nil {
		return err
	}

	stats, err := a.queue.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Queue: %s\n", a.cfg.Queue.Name)
	PrintSeparator()
	PrintKeyValue("Waiting", fmt.Sprint(stats.Waiting), 8)
	PrintKeyValue("Active", fmt.Sprint(stats.Active), 8)
	PrintKeyValue("Dead", fmt.Sprint(stats.Dead), 8)

	if stats.Active > 0 {
		PrintWarning("Active jobs belong to a running worker or were left behind by a crash")
	}
	return nil
}
