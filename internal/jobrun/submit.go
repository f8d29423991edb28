package jobrun

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// Enqueuer publishes a descriptor to the job queue
type Enqueuer interface {
	Enqueue(ctx context.Context, desc contracts.Descriptor) error
}

// Submitter creates a NOT_STARTED run and enqueues its descriptor.
// This is the producer side used by the CLI and the HTTP API.
type Submitter struct {
	runs  contracts.RunRepository
	queue Enqueuer
	now   func() time.Time
}

// NewSubmitter creates a submitter
func NewSubmitter(runs contracts.RunRepository, q Enqueuer) *Submitter {
	return &Submitter{runs: runs, queue: q, now: time.Now}
}

// Submit records and enqueues a new run. If enqueueing fails the run stays
// NOT_STARTED and is never picked up.
func (s *Submitter) Submit(ctx context.Context, userID string, kind contracts.JobKind) (*contracts.JobRun, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	kind, err := contracts.ParseJobKind(string(kind))
	if err != nil {
		return nil, err
	}

	run := &contracts.JobRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Status:    contracts.StatusNotStarted,
		CreatedAt: s.now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	desc := contracts.Descriptor{RunID: run.ID, UserID: userID, Kind: kind}
	if err := s.queue.Enqueue(ctx, desc); err != nil {
		return run, fmt.Errorf("enqueue run %s: %w", run.ID, err)
	}

	return run, nil
}
