package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aurora/engine/internal/scheduler"
	"github.com/wonny/aurora/engine/internal/worker"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "큐 워커",
	Long: `Redis 큐(BullMQ 레이아웃)에서 작업을 꺼내 실행하는 워커입니다.

이 워커는:
- bull:<queue>:wait 에서 작업을 꺼내 active 로 이동
- 실행 상태 NOT_STARTED → RUNNING → COMPLETED | FAILED 기록
- 잘못된 페이로드는 dead 리스트로 이동
- Graceful shutdown 지원 (실행 중인 작업은 끝까지 수행)

Example:
  go run ./cmd/aurora worker start
  go run ./cmd/aurora worker start --with-api --with-monitor`,
}

// workerStartCmd represents the start subcommand
var workerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "워커 시작",
	RunE:  runWorkerStart,
}

var (
	workerWithAPI     bool
	workerWithMonitor bool
)

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerStartCmd)

	workerStartCmd.Flags().BoolVar(&workerWithAPI, "with-api", false, "같은 프로세스에서 API 서버 실행")
	workerStartCmd.Flags().BoolVar(&workerWithMonitor, "with-monitor", false, "같은 프로세스에서 모니터 스케줄러 실행")
}

func runWorkerStart(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireQueue(); err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Println("  Aurora Engine Worker")
	PrintSeparator()
	PrintKeyValue("Queue", a.cfg.Queue.Name, 12)
	PrintKeyValue("Poll timeout", a.cfg.Queue.PollTimeout.String(), 12)
	PrintKeyValue("Sources", fmt.Sprint(a.cfg.MarketData.SourceOrder), 12)
	PrintDoubleSeparator()

	var sched *scheduler.Scheduler
	if workerWithMonitor {
		if sched, err = newMonitor(a); err != nil {
			return err
		}
	}

	executor := worker.NewExecutor(a.queue, a.runs, a.scorer, a.allocator, worker.ConfigFrom(a.cfg.Queue), a.log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return executor.Run(gctx)
	})

	if workerWithAPI {
		server := newAPIServer(a)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	if sched != nil {
		g.Go(func() error {
			sched.Start()
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	PrintSuccess("Worker started (Ctrl+C to stop)")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	PrintSuccess("Worker stopped")
	return nil
}
