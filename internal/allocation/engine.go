package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/config"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// Params are the allocation knobs taken from config
type Params struct {
	MaxInstruments   int
	MinAllocationPct float64
}

// ParamsFromConfig maps engine config onto allocation params
func ParamsFromConfig(cfg config.EngineConfig) Params {
	return Params{
		MaxInstruments:   cfg.MaxInstruments,
		MinAllocationPct: cfg.MinAllocationPct,
	}
}

// Engine implements contracts.Allocator
// ⭐ SSOT: 월 적립 배분 제안 생성은 여기서만
type Engine struct {
	scores    contracts.ScoreRepository
	policies  contracts.PolicyRepository
	proposals contracts.ProposalRepository
	params    Params
	logger    *logger.Logger
	now       func() time.Time
}

// NewEngine creates an allocation engine
func NewEngine(
	scores contracts.ScoreRepository,
	policies contracts.PolicyRepository,
	proposals contracts.ProposalRepository,
	params Params,
	log *logger.Logger,
) *Engine {
	if params.MaxInstruments <= 0 {
		params.MaxInstruments = 8
	}
	return &Engine{
		scores:    scores,
		policies:  policies,
		proposals: proposals,
		params:    params,
		logger:    log,
		now:       time.Now,
	}
}

// Run builds and persists one proposal for (runID, userID).
// contracts.ErrNoScoringResults and contracts.ErrNothingToAllocate are
// returned with a nil proposal and mean nothing was written.
func (e *Engine) Run(ctx context.Context, runID, userID string) (*contracts.AllocationProposal, error) {
	log := e.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"user_id": userID,
		"stage":   "allocation",
	})

	policy, err := e.policies.ActivePolicy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve contribution policy: %w", err)
	}
	if policy == nil {
		log.Warn("No active contribution policy, using default")
		policy = contracts.DefaultContributionPolicy(userID)
	}

	log.WithFields(map[string]interface{}{
		"monthly_contribution": policy.MonthlyContribution,
		"target_allocation":    policy.TargetAllocation,
	}).Info("Allocation started")

	candidates, err := e.scores.TopByRun(ctx, runID, e.params.MaxInstruments)
	if err != nil {
		return nil, fmt.Errorf("fetch top scores: %w", err)
	}
	if len(candidates) == 0 {
		return nil, contracts.ErrNoScoringResults
	}

	lines := Weigh(candidates, policy.MonthlyContribution, e.params.MinAllocationPct)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%d candidates, min %.2f%%: %w",
			len(candidates), e.params.MinAllocationPct, contracts.ErrNothingToAllocate)
	}

	proposal := &contracts.AllocationProposal{
		ID:                  uuid.NewString(),
		RunID:               runID,
		UserID:              userID,
		ProposalDate:        e.now().UTC(),
		MonthlyContribution: policy.MonthlyContribution,
		TargetAllocation:    policy.TargetAllocation,
		Status:              contracts.ProposalPending,
		Lines:               lines,
	}

	if err := e.proposals.SaveProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("save proposal: %w", err)
	}

	for _, l := range lines {
		log.WithFields(map[string]interface{}{
			"ticker": l.Ticker,
			"pct":    l.AllocationPct,
			"amount": l.AllocationAmount,
		}).Debug("Proposed line")
	}

	log.WithFields(map[string]interface{}{
		"proposal_id": proposal.ID,
		"candidates":  len(candidates),
		"lines":       len(lines),
	}).Info("Allocation proposal created")

	return proposal, nil
}
