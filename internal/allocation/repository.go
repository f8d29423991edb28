package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/database"
)

// Repository implements contracts.PolicyRepository and contracts.ProposalRepository
// ⭐ SSOT: 정책 조회 / 제안 저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new allocation repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// policyConfig is the jsonb document stored on a policy version
type policyConfig struct {
	MonthlyContribution *float64           `json:"monthlyContribution"`
	AssetAllocation     map[string]float64 `json:"assetAllocation"`
}

// ActivePolicy returns the user's active policy version or nil when none exists
func (r *Repository) ActivePolicy(ctx context.Context, userID string) (*contracts.ContributionPolicy, error) {
	query := `
		SELECT v.id, v.config
		FROM policy.contribution_policies p
		JOIN policy.contribution_policy_versions v ON v.policy_id = p.id
		WHERE p.user_id = $1 AND v.is_active = true
		ORDER BY v.created_at DESC
		LIMIT 1
	`

	var (
		versionID string
		raw       []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&versionID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active policy: %w", err)
	}

	return decodePolicy(userID, versionID, raw)
}

// decodePolicy fills missing fields from the default policy
func decodePolicy(userID, versionID string, raw []byte) (*contracts.ContributionPolicy, error) {
	policy := contracts.DefaultContributionPolicy(userID)
	policy.VersionID = versionID

	if len(raw) == 0 {
		return policy, nil
	}

	var cfg policyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode policy %s: %w", versionID, err)
	}
	if cfg.MonthlyContribution != nil {
		policy.MonthlyContribution = *cfg.MonthlyContribution
	}
	if len(cfg.AssetAllocation) > 0 {
		policy.TargetAllocation = cfg.AssetAllocation
	}
	return policy, nil
}

// SaveProposal writes the proposal and its lines in one transaction
func (r *Repository) SaveProposal(ctx context.Context, p *contracts.AllocationProposal) error {
	target, err := json.Marshal(p.TargetAllocation)
	if err != nil {
		return fmt.Errorf("marshal target allocation: %w", err)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO engine.proposals (
				id, run_id, user_id, proposal_type, proposal_date,
				monthly_amount, target_allocation, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		`,
			p.ID, p.RunID, p.UserID, contracts.ProposalTypeMonthly, p.ProposalDate,
			p.MonthlyContribution, string(target), string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("insert proposal: %w", err)
		}

		batch := &pgx.Batch{}
		for _, l := range p.Lines {
			metrics, err := json.Marshal(l.Metrics)
			if err != nil {
				return fmt.Errorf("marshal metrics for %s: %w", l.Ticker, err)
			}
			batch.Queue(`
				INSERT INTO engine.proposed_lines (
					id, proposal_id, instrument_id, allocation_pct, allocation_amount, score, metrics
				) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
			`, uuid.NewString(), p.ID, l.InstrumentID, l.AllocationPct, l.AllocationAmount, l.Score, string(metrics))
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert proposed lines: %w", err)
		}
		return nil
	})
}
