package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/internal/jobrun"
	"github.com/wonny/aurora/engine/internal/queue"
	"github.com/wonny/aurora/engine/pkg/config"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// JobQueue is the part of the queue the executor consumes
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Delivery, error)
	Ack(ctx context.Context, d *queue.Delivery) error
	DeadLetter(ctx context.Context, d *queue.Delivery, reason string) error
}

// Config controls polling and backoff
type Config struct {
	PollTimeout time.Duration
	Backoff     time.Duration
}

// ConfigFrom maps queue config onto executor config
func ConfigFrom(cfg config.QueueConfig) Config {
	return Config{PollTimeout: cfg.PollTimeout, Backoff: cfg.Backoff}
}

// Executor consumes one job at a time and drives its JobRun through
// NOT_STARTED → RUNNING → COMPLETED | FAILED.
// ⭐ SSOT: JobRun을 FAILED로 바꾸는 곳은 여기 하나
type Executor struct {
	queue     JobQueue
	runs      contracts.RunRepository
	scorer    contracts.Scorer
	allocator contracts.Allocator
	cfg       Config
	logger    *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewExecutor wires an executor. Zero durations fall back to 5s.
func NewExecutor(
	q JobQueue,
	runs contracts.RunRepository,
	scorer contracts.Scorer,
	allocator contracts.Allocator,
	cfg Config,
	log *logger.Logger,
) *Executor {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}
	return &Executor{
		queue:     q,
		runs:      runs,
		scorer:    scorer,
		allocator: allocator,
		cfg:       cfg,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run polls until ctx is cancelled. Infrastructure errors are logged and
// followed by a fixed backoff; they never stop the loop.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.WithFields(map[string]interface{}{
		"poll_timeout": e.cfg.PollTimeout.String(),
		"backoff":      e.cfg.Backoff.String(),
	}).Info("Executor started")

	for {
		if ctx.Err() != nil {
			e.logger.Info("Executor stopped")
			return nil
		}

		if _, err := e.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			e.logger.WithError(err).Errorf("Executor iteration failed, backing off %s", e.cfg.Backoff)
			e.sleep(ctx, e.cfg.Backoff)
		}
	}
}

// ProcessOne performs one poll. processed is false when the poll timed out
// or the queue could not be read.
func (e *Executor) ProcessOne(ctx context.Context) (processed bool, err error) {
	d, err := e.queue.Dequeue(ctx, e.cfg.PollTimeout)
	if errors.Is(err, queue.ErrEmpty) {
		return false, nil
	}

	var perr *queue.PayloadError
	if errors.As(err, &perr) {
		e.logger.WithFields(map[string]interface{}{
			"job_key": perr.Delivery.Key,
			"reason":  perr.Reason,
		}).Error("Malformed job payload, dead-lettering")

		if err := e.queue.DeadLetter(context.WithoutCancel(ctx), perr.Delivery, perr.Reason); err != nil {
			return true, fmt.Errorf("dead-letter: %w", err)
		}
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}

	return true, e.handle(ctx, d)
}

// handle runs one delivery to its recorded outcome and acks it. Once a job is
// RUNNING it is not interrupted by ctx cancellation.
func (e *Executor) handle(ctx context.Context, d *queue.Delivery) error {
	jobCtx := context.WithoutCancel(ctx)
	desc := d.Descriptor
	log := e.logger.WithFields(map[string]interface{}{
		"run_id":  desc.RunID,
		"user_id": desc.UserID,
		"kind":    desc.Kind,
	})

	start := e.now()
	if err := e.runs.MarkRunning(jobCtx, desc.RunID, start); err != nil {
		switch {
		case errors.Is(err, jobrun.ErrInvalidTransition):
			log.WithError(err).Warn("Run already started or finished, dropping duplicate delivery")
			return e.ack(jobCtx, d)
		case errors.Is(err, jobrun.ErrRunNotFound):
			log.WithError(err).Error("Run does not exist, dead-lettering")
			if dlErr := e.queue.DeadLetter(jobCtx, d, err.Error()); dlErr != nil {
				return fmt.Errorf("dead-letter %s: %w", desc.RunID, dlErr)
			}
			return nil
		default:
			return fmt.Errorf("mark running %s: %w", desc.RunID, err)
		}
	}

	log.Info("Job started")

	stageErr := e.runStages(jobCtx, desc, log)
	if stageErr == nil {
		if err := e.runs.MarkCompleted(jobCtx, desc.RunID, e.now()); err != nil {
			stageErr = fmt.Errorf("mark completed: %w", err)
		}
	}

	duration := e.now().Sub(start)

	if stageErr != nil {
		if err := e.runs.MarkFailed(jobCtx, desc.RunID, stageErr.Error(), e.now()); err != nil {
			log.WithError(err).Error("Could not record job failure, leaving delivery active")
			return fmt.Errorf("mark failed %s: %w", desc.RunID, err)
		}
		log.WithError(stageErr).WithField("duration", duration.String()).Error("Job failed")
	} else {
		log.WithField("duration", duration.String()).Info("Job completed")
	}

	return e.ack(jobCtx, d)
}

func (e *Executor) ack(ctx context.Context, d *queue.Delivery) error {
	if err := e.queue.Ack(ctx, d); err != nil {
		return fmt.Errorf("ack %s: %w", d.Key, err)
	}
	return nil
}

// runStages invokes scoring then allocation as the kind requires. A panic in
// either stage becomes the returned error.
func (e *Executor) runStages(ctx context.Context, desc contracts.Descriptor, log *logger.Logger) (err error) {
	stage := ""
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s stage: %v", stage, r)
		}
	}()

	if desc.Kind.RunsScoring() {
		stage = "scoring"
		summary, err := e.scorer.Run(ctx, desc.RunID, desc.UserID)
		if err != nil {
			return fmt.Errorf("scoring: %w", err)
		}
		log.WithFields(map[string]interface{}{
			"scored":  summary.Scored,
			"skipped": summary.Skipped,
			"errored": summary.Errored,
		}).Info("Scoring stage finished")
	}

	if desc.Kind.RunsAllocation() {
		stage = "allocation"
		proposal, err := e.allocator.Run(ctx, desc.RunID, desc.UserID)
		switch {
		case errors.Is(err, contracts.ErrNoScoringResults), errors.Is(err, contracts.ErrNothingToAllocate):
			log.WithError(err).Warn("Allocation produced no proposal")
		case err != nil:
			return fmt.Errorf("allocation: %w", err)
		default:
			log.WithFields(map[string]interface{}{
				"proposal_id": proposal.ID,
				"lines":       len(proposal.Lines),
			}).Info("Allocation stage finished")
		}
	}

	return nil
}
