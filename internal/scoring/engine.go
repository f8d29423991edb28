package scoring

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/config"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// OutcomeKind classifies what happened to one instrument
type OutcomeKind int

const (
	Scored OutcomeKind = iota
	Skipped
	Errored
)

func (k OutcomeKind) String() string {
	switch k {
	case Scored:
		return "scored"
	case Skipped:
		return "skipped"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Outcome is the per-instrument result of a scoring pass
type Outcome struct {
	Instrument contracts.Instrument
	Kind       OutcomeKind
	Record     *contracts.ScoreRecord // set when Kind == Scored
	Reason     string                 // set when Kind == Skipped
	Err        error                  // set when Kind == Errored
}

// Params are the scoring knobs taken from config
type Params struct {
	LookbackDays int
	MinBars      int
	MinVolume    int64
	MinAgeDays   int
	RiskFreeRate float64
}

// ParamsFromConfig maps engine config onto scoring params
func ParamsFromConfig(cfg config.EngineConfig) Params {
	return Params{
		LookbackDays: cfg.LookbackDays,
		MinBars:      cfg.MinBars,
		MinVolume:    cfg.MinVolume,
		MinAgeDays:   cfg.MinAgeDays,
		RiskFreeRate: cfg.RiskFreeRate,
	}
}

// Engine implements contracts.Scorer
// ⭐ SSOT: 스코어링 스테이지 실행은 여기서만
type Engine struct {
	instruments contracts.InstrumentRepository
	prices      contracts.PriceRepository
	scores      contracts.ScoreRepository
	source      contracts.PriceSource
	params      Params
	logger      *logger.Logger
	now         func() time.Time
}

// NewEngine creates a scoring engine
func NewEngine(
	instruments contracts.InstrumentRepository,
	prices contracts.PriceRepository,
	scores contracts.ScoreRepository,
	source contracts.PriceSource,
	params Params,
	log *logger.Logger,
) *Engine {
	if params.MinBars == 0 {
		params.MinBars = DefaultMinBars
	}
	return &Engine{
		instruments: instruments,
		prices:      prices,
		scores:      scores,
		source:      source,
		params:      params,
		logger:      log,
		now:         time.Now,
	}
}

// Run scores every fund instrument and persists one record per scored
// instrument. A single instrument failing never aborts the stage.
func (e *Engine) Run(ctx context.Context, runID, userID string) (*contracts.ScoringSummary, error) {
	start := e.now()
	asOf := start.UTC()
	log := e.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"user_id": userID,
		"stage":   "scoring",
	})

	instruments, err := e.instruments.ListByClass(ctx, contracts.ClassFund)
	if err != nil {
		return nil, fmt.Errorf("list fund instruments: %w", err)
	}

	if err := e.scores.CreateScoringRun(ctx, runID, asOf); err != nil {
		return nil, fmt.Errorf("create scoring run: %w", err)
	}

	log.WithField("instruments", len(instruments)).Info("Scoring started")

	summary := &contracts.ScoringSummary{RunID: runID, Total: len(instruments)}

	for o := range e.Evaluate(ctx, runID, asOf, instruments) {
		ilog := log.WithField("ticker", o.Instrument.Ticker)

		if o.Kind == Scored {
			if err := e.scores.SaveScore(ctx, o.Record); err != nil {
				o = Outcome{Instrument: o.Instrument, Kind: Errored, Err: fmt.Errorf("save score: %w", err)}
			}
		}

		switch o.Kind {
		case Scored:
			summary.Scored++
			ilog.WithFields(map[string]interface{}{
				"total":  o.Record.Total,
				"bucket": o.Record.Bucket,
			}).Info("Instrument scored")
		case Skipped:
			summary.Skipped++
			ilog.WithField("reason", o.Reason).Warn("Instrument skipped")
		case Errored:
			summary.Errored++
			ilog.WithError(o.Err).Error("Instrument scoring failed")
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("scoring interrupted: %w", err)
	}

	summary.Elapsed = e.now().Sub(start)
	log.WithFields(map[string]interface{}{
		"scored":   summary.Scored,
		"skipped":  summary.Skipped,
		"errored":  summary.Errored,
		"duration": summary.Elapsed,
	}).Info("Scoring completed")

	return summary, nil
}

// Evaluate lazily yields one Outcome per instrument. Nothing is persisted here.
// Iteration stops early when ctx is cancelled.
func (e *Engine) Evaluate(ctx context.Context, runID string, asOf time.Time, instruments []contracts.Instrument) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for _, inst := range instruments {
			if ctx.Err() != nil {
				return
			}
			if !yield(e.evaluate(ctx, runID, asOf, inst)) {
				return
			}
		}
	}
}

// evaluate turns every failure mode into an Outcome instead of an error
func (e *Engine) evaluate(ctx context.Context, runID string, asOf time.Time, inst contracts.Instrument) (out Outcome) {
	out.Instrument = inst

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Instrument: inst, Kind: Errored, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	from := asOf.AddDate(0, 0, -e.params.LookbackDays)
	bars, err := e.source.History(ctx, inst, from, asOf)
	if err != nil && !errors.Is(err, contracts.ErrInsufficientData) {
		out.Kind, out.Err = Errored, fmt.Errorf("price history: %w", err)
		return out
	}

	if len(bars) < e.params.MinBars {
		out.Kind, out.Reason = Skipped, fmt.Sprintf("insufficient data: %d bars, need %d", len(bars), e.params.MinBars)
		return out
	}

	if reason, err := e.checkEligibility(ctx, inst, bars, asOf); err != nil {
		out.Kind, out.Err = Errored, err
		return out
	} else if reason != "" {
		out.Kind, out.Reason = Skipped, reason
		return out
	}

	sub, metrics, err := Calculate(bars, e.params.MinBars, e.params.RiskFreeRate)
	if errors.Is(err, contracts.ErrInsufficientData) {
		out.Kind, out.Reason = Skipped, err.Error()
		return out
	}
	if err != nil {
		out.Kind, out.Err = Errored, err
		return out
	}

	rec := contracts.NewScoreRecord(runID, inst, sub, metrics, asOf)
	rec.ID = uuid.NewString()

	out.Kind, out.Record = Scored, rec
	return out
}

// checkEligibility applies the optional volume and listing-age filters.
// An empty reason means the instrument is eligible.
func (e *Engine) checkEligibility(ctx context.Context, inst contracts.Instrument, bars []contracts.PriceBar, asOf time.Time) (string, error) {
	if e.params.MinVolume > 0 {
		if avg := contracts.AverageVolume(bars); avg < float64(e.params.MinVolume) {
			return fmt.Sprintf("average volume %.0f below %d", avg, e.params.MinVolume), nil
		}
	}

	if e.params.MinAgeDays > 0 {
		earliest, ok, err := e.prices.EarliestDate(ctx, inst.ID)
		if err != nil {
			return "", fmt.Errorf("earliest bar date: %w", err)
		}
		if !ok {
			return "no persisted history to establish age", nil
		}
		if ageDays := int(asOf.Sub(earliest).Hours() / 24); ageDays < e.params.MinAgeDays {
			return fmt.Sprintf("history age %d days below %d", ageDays, e.params.MinAgeDays), nil
		}
	}

	return "", nil
}
