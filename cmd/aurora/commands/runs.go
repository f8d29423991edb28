package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "실행 상태 조회",
	Long: `engine.runs 에 기록된 실행 상태를 조회합니다.

Example:
  go run ./cmd/aurora runs list --user u-123
  go run ./cmd/aurora runs show 6f1c...`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "사용자 실행 목록",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run_id]",
	Short: "실행 상세",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsUser  string
	runsLimit int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().StringVar(&runsUser, "user", "", "사용자 ID (필수)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "최대 건수")
	_ = runsListCmd.MarkFlagRequired("user")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.runs.ListByUser(ctx, runsUser, runsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		PrintInfo(fmt.Sprintf("No runs for user %s", runsUser))
		return nil
	}

	widths := []int{36, 10, 11, 19, 10}
	PrintTableHeader([]string{"ID", "TYPE", "STATUS", "CREATED", "DURATION"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.ID,
			string(r.Kind),
			string(r.Status),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(&r),
		}, widths)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.runs.Get(ctx, args[0])
	if err != nil {
		return err
	}

	printRun(run)
	return nil
}

func printRun(r *contracts.JobRun) {
	PrintDoubleSeparator()
	fmt.Printf("  Run %s\n", r.ID)
	PrintSeparator()
	PrintKeyValue("User", r.UserID, 9)
	PrintKeyValue("Type", string(r.Kind), 9)
	PrintKeyValue("Status", string(r.Status), 9)
	PrintKeyValue("Created", r.CreatedAt.Local().Format(time.RFC3339), 9)
	if r.StartedAt != nil {
		PrintKeyValue("Started", r.StartedAt.Local().Format(time.RFC3339), 9)
	}
	if r.CompletedAt != nil {
		PrintKeyValue("Finished", r.CompletedAt.Local().Format(time.RFC3339), 9)
		PrintKeyValue("Duration", runDuration(r), 9)
	}
	if r.Error != "" {
		PrintKeyValue("Error", r.Error, 9)
	}
	PrintDoubleSeparator()
}

func runDuration(r *contracts.JobRun) string {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return "-"
	}
	return r.CompletedAt.Sub(*r.StartedAt).Round(time.Millisecond).String()
}
