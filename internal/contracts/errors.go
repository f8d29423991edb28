package contracts

import "errors"

var (
	// ErrInsufficientData marks a price series too short to score.
	// Non-fatal: the instrument is skipped.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrNoScoringResults means the run has no ScoreRecords to allocate.
	// Non-fatal: no proposal is created, the job still completes.
	ErrNoScoringResults = errors.New("no scoring results for run")

	// ErrNothingToAllocate means every candidate fell below the threshold.
	ErrNothingToAllocate = errors.New("no candidate above minimum allocation")
)
