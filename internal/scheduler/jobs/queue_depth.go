package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aurora/engine/internal/queue"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// StatsReader is the part of the queue this job reads
type StatsReader interface {
	Stats(ctx context.Context) (*queue.Stats, error)
}

// QueueDepthJob logs queue list lengths. A non-empty active list with no
// executor running points to deliveries left behind by a crash.
type QueueDepthJob struct {
	queue  StatsReader
	logger *logger.Logger
}

// NewQueueDepthJob creates a queue depth report job
func NewQueueDepthJob(q StatsReader, log *logger.Logger) *QueueDepthJob {
	return &QueueDepthJob{queue: q, logger: log}
}

// Name returns the job name
func (j *QueueDepthJob) Name() string {
	return "queue_depth"
}

// Schedule returns the cron schedule (every minute)
func (j *QueueDepthJob) Schedule() string {
	return "0 * * * * *"
}

// Run reads and logs queue stats
func (j *QueueDepthJob) Run(ctx context.Context) error {
	stats, err := j.queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("queue stats: %w", err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"waiting": stats.Waiting,
		"active":  stats.Active,
		"dead":    stats.Dead,
	})
	if stats.Dead > 0 {
		log.Warn("Queue has dead-lettered jobs")
		return nil
	}
	log.Debug("Queue depth")
	return nil
}
