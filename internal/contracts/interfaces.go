package contracts

import (
	"context"
	"time"
)

// PriceSource yields an ascending daily series for one instrument
// ⭐ SSOT: 가격 히스토리 조회 인터페이스
type PriceSource interface {
	Name() string
	History(ctx context.Context, inst Instrument, from, to time.Time) ([]PriceBar, error)
}

// Scorer is the scoring stage
// ⭐ SSOT: 스코어링 스테이지 인터페이스
type Scorer interface {
	Run(ctx context.Context, runID, userID string) (*ScoringSummary, error)
}

// Allocator is the allocation stage. A nil proposal with a nil error never
// happens: "nothing to propose" is reported through a sentinel error.
// ⭐ SSOT: 배분 스테이지 인터페이스
type Allocator interface {
	Run(ctx context.Context, runID, userID string) (*AllocationProposal, error)
}

// ScoringSummary counts per-instrument outcomes of one scoring stage
type ScoringSummary struct {
	RunID   string        `json:"run_id"`
	Total   int           `json:"total"`
	Scored  int           `json:"scored"`
	Skipped int           `json:"skipped"`
	Errored int           `json:"errored"`
	Elapsed time.Duration `json:"elapsed"`
}
