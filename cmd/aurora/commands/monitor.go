package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aurora/engine/internal/scheduler"
	"github.com/wonny/aurora/engine/internal/scheduler/jobs"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "운영 모니터 스케줄러",
	Long: `주기적으로 운영 상태를 점검하고 로그로 남깁니다.

등록되는 작업:
- stale_runs: 10분마다 (RUNNING 상태로 오래 머문 실행 경고)
- queue_depth: 1분마다 (대기/진행/dead 건수 기록)

모니터는 실행 상태를 변경하지 않습니다.

Example:
  go run ./cmd/aurora monitor
  go run ./cmd/aurora monitor --once`,
	RunE: runMonitor,
}

var monitorOnce bool

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "모든 작업을 한 번씩 실행하고 통계 출력 후 종료")
}

// newMonitor registers the monitoring jobs
func newMonitor(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewStaleRunsJob(a.runs, a.cfg.Engine.StaleRunWindow, a.log)); err != nil {
		return nil, fmt.Errorf("add stale runs job: %w", err)
	}

	if a.queue != nil {
		if err := sched.AddJob(jobs.NewQueueDepthJob(a.queue, a.log)); err != nil {
			return nil, fmt.Errorf("add queue depth job: %w", err)
		}
	}

	return sched, nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newMonitor(a)
	if err != nil {
		return err
	}

	if monitorOnce {
		for _, name := range sched.GetAllJobs() {
			if err := sched.RunJob(name); err != nil {
				PrintError(fmt.Sprintf("%s: %v", name, err))
			}
		}
		printJobStats(sched.GetJobStats())
		return nil
	}

	sched.Start()
	PrintSuccess("Monitor started")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down monitor...")
	sched.Stop()
	return nil
}

func printJobStats(stats map[string]scheduler.JobStats) {
	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 10)
		PrintKeyValue("Runs", fmt.Sprintf("%d (%d ok, %d failed)", stat.TotalRuns, stat.SuccessCount, stat.FailureCount), 10)
		if stat.LastRun != nil {
			PrintKeyValue("Last run", stat.LastRun.Format("2006-01-02 15:04:05"), 10)
		}
		fmt.Println()
	}
}
