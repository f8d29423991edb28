package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// StaleRunsJob reports runs stuck in RUNNING longer than a window.
// It only logs; reconciling a stuck run is left to an operator.
type StaleRunsJob struct {
	runs     contracts.RunRepository
	window   time.Duration
	schedule string
	logger   *logger.Logger

	lastFound int
}

// NewStaleRunsJob creates a stale run report job
func NewStaleRunsJob(runs contracts.RunRepository, window time.Duration, log *logger.Logger) *StaleRunsJob {
	return &StaleRunsJob{
		runs:     runs,
		window:   window,
		schedule: "0 */10 * * * *",
		logger:   log,
	}
}

// Name returns the job name
func (j *StaleRunsJob) Name() string {
	return "stale_runs"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *StaleRunsJob) Schedule() string {
	return j.schedule
}

// LastFound is the number of stale runs seen by the latest execution
func (j *StaleRunsJob) LastFound() int {
	return j.lastFound
}

// Run lists and logs stale runs
func (j *StaleRunsJob) Run(ctx context.Context) error {
	stale, err := j.runs.ListStale(ctx, j.window)
	if err != nil {
		return fmt.Errorf("list stale runs: %w", err)
	}
	j.lastFound = len(stale)

	now := time.Now()
	for _, r := range stale {
		fields := map[string]interface{}{
			"run_id":  r.ID,
			"user_id": r.UserID,
			"kind":    r.Kind,
		}
		if r.StartedAt != nil {
			fields["running_for"] = now.Sub(*r.StartedAt).Round(time.Second).String()
		}
		j.logger.WithFields(fields).Warn("Run stuck in RUNNING")
	}

	if len(stale) > 0 {
		j.logger.WithField("window", j.window.String()).Warnf("%d stale runs detected", len(stale))
	}
	return nil
}
