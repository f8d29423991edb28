package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// InstrumentRepository reads catalog data
type InstrumentRepository interface {
	ListByClass(ctx context.Context, class InstrumentClass) ([]Instrument, error)
}

// PriceRepository reads persisted daily history
type PriceRepository interface {
	GetByInstrumentAndDateRange(ctx context.Context, instrumentID string, from, to time.Time) ([]PriceBar, error)
	// EarliestDate returns ok=false when no bar is stored.
	EarliestDate(ctx context.Context, instrumentID string) (date time.Time, ok bool, err error)
}

// ScoreRepository persists ScoringRuns / ScoreRecords
type ScoreRepository interface {
	CreateScoringRun(ctx context.Context, runID string, at time.Time) error
	// SaveScore commits one record on its own.
	SaveScore(ctx context.Context, rec *ScoreRecord) error
	// TopByRun orders by total DESC, instrument id ASC.
	TopByRun(ctx context.Context, runID string, limit int) ([]ScoreRecord, error)
}

// PolicyRepository reads contribution policies.
// ActivePolicy returns (nil, nil) when the user has no active version.
type PolicyRepository interface {
	ActivePolicy(ctx context.Context, userID string) (*ContributionPolicy, error)
}

// ProposalRepository writes proposals. SaveProposal is all-or-nothing.
type ProposalRepository interface {
	SaveProposal(ctx context.Context, p *AllocationProposal) error
}

// RunRepository is the Run State Store
type RunRepository interface {
	Create(ctx context.Context, run *JobRun) error
	Get(ctx context.Context, runID string) (*JobRun, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]JobRun, error)
	ListStale(ctx context.Context, olderThan time.Duration) ([]JobRun, error)

	MarkRunning(ctx context.Context, runID string, at time.Time) error
	MarkCompleted(ctx context.Context, runID string, at time.Time) error
	MarkFailed(ctx context.Context, runID string, errText string, at time.Time) error
}
