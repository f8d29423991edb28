package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/internal/scoring"
)

// engineCmd represents the engine command
var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "엔진 작업 제출 / 단일 종목 스코어링",
	Long: `엔진 작업을 큐에 등록하거나 단일 종목 스코어를 계산합니다.

Subcommands:
  run     - 실행 생성 후 큐 등록 (워커가 처리)
  score   - 단일 티커 스코어 계산 (저장하지 않음)

Example:
  go run ./cmd/aurora engine run --user u-123 --type full --wait
  go run ./cmd/aurora engine score --ticker VWCE.DE`,
}

var engineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "실행 생성 후 큐 등록",
	RunE:  runEngineRun,
}

var engineScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "단일 티커 스코어 계산",
	RunE:  runEngineScore,
}

var (
	engineUser    string
	engineType    string
	engineWait    bool
	engineTimeout time.Duration
	engineTicker  string
)

func init() {
	rootCmd.AddCommand(engineCmd)
	engineCmd.AddCommand(engineRunCmd)
	engineCmd.AddCommand(engineScoreCmd)

	engineRunCmd.Flags().StringVar(&engineUser, "user", "", "사용자 ID (필수)")
	engineRunCmd.Flags().StringVar(&engineType, "type", "full", "작업 유형 (scoring|allocation|pac|full)")
	engineRunCmd.Flags().BoolVar(&engineWait, "wait", false, "종료 상태가 될 때까지 대기")
	engineRunCmd.Flags().DurationVar(&engineTimeout, "timeout", 10*time.Minute, "--wait 최대 대기 시간")
	_ = engineRunCmd.MarkFlagRequired("user")

	engineScoreCmd.Flags().StringVar(&engineTicker, "ticker", "", "티커 (필수)")
	_ = engineScoreCmd.MarkFlagRequired("ticker")
}

func runEngineRun(cmd *cobra.Command, args []string) error {
	kind, err := contracts.ParseJobKind(engineType)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireQueue(); err != nil {
		return err
	}

	run, err := a.submitter.Submit(ctx, engineUser, kind)
	if err != nil {
		if run != nil {
			PrintWarning(fmt.Sprintf("Run %s was created but not enqueued; it stays NOT_STARTED", run.ID))
		}
		return err
	}

	PrintSuccess(fmt.Sprintf("Run %s enqueued (%s)", run.ID, run.Kind))

	if !engineWait {
		return nil
	}

	final, err := waitForRun(ctx, a, run.ID, engineTimeout)
	if err != nil {
		return err
	}
	printRun(final)

	if final.Status == contracts.StatusFailed {
		return fmt.Errorf("run %s failed: %s", final.ID, final.Error)
	}
	return nil
}

// waitForRun polls the run state until it is terminal
func waitForRun(ctx context.Context, a *app, runID string, timeout time.Duration) (*contracts.JobRun, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		run, err := a.runs.Get(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("get run: %w", err)
		}
		if run.Status.IsTerminal() {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run %s still %s: %w", runID, run.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

func runEngineScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	inst, err := a.instruments.GetByTicker(ctx, engineTicker)
	if err != nil {
		return err
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -a.cfg.Engine.LookbackDays)

	bars, err := a.source.History(ctx, *inst, from, to)
	if err != nil {
		return fmt.Errorf("price history: %w", err)
	}

	sub, metrics, err := scoring.Calculate(bars, a.cfg.Engine.MinBars, a.cfg.Engine.RiskFreeRate)
	if err != nil {
		return fmt.Errorf("score %s: %w", inst.Ticker, err)
	}
	rec := contracts.NewScoreRecord("", *inst, sub, metrics, to)

	PrintDoubleSeparator()
	fmt.Printf("  %s  %s\n", rec.Ticker, rec.Name)
	PrintSeparator()
	PrintKeyValue("Bars", fmt.Sprintf("%d (%s ~ %s)", len(bars), bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02")), 12)
	PrintKeyValue("Return 1Y", fmt.Sprintf("%.2f%%  → %d", metrics.Return1Y, rec.SubScores.Performance), 12)
	PrintKeyValue("Volatility", fmt.Sprintf("%.2f%%  → %d", metrics.Volatility, rec.SubScores.Volatility), 12)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.2f  → %d", metrics.SharpeRatio, rec.SubScores.Sharpe), 12)
	PrintKeyValue("Max DD", fmt.Sprintf("%.2f%%  → %d", metrics.MaxDrawdown, rec.SubScores.Drawdown), 12)
	PrintSeparator()
	PrintKeyValue("Total", fmt.Sprintf("%d / 100  (%s)", rec.Total, rec.Bucket), 12)
	PrintDoubleSeparator()
	return nil
}
