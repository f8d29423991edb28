package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// Repository implements contracts.ScoreRepository
// ⭐ SSOT: 스코어 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new score repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateScoringRun registers the run. Re-registering the same id is a no-op so
// a redelivered "full" job does not fail here.
func (r *Repository) CreateScoringRun(ctx context.Context, runID string, at time.Time) error {
	query := `
		INSERT INTO engine.scoring_runs (id, run_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, runID, at); err != nil {
		return fmt.Errorf("insert scoring run: %w", err)
	}
	return nil
}

// SaveScore inserts one record. Each call is its own implicit transaction.
func (r *Repository) SaveScore(ctx context.Context, rec *contracts.ScoreRecord) error {
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO engine.score_records (
			id, run_id, instrument_id, run_date,
			performance_score, volatility_score, sharpe_score, drawdown_score,
			total_score, bucket, metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.RunID, rec.InstrumentID, rec.RunDate,
		rec.SubScores.Performance, rec.SubScores.Volatility, rec.SubScores.Sharpe, rec.SubScores.Drawdown,
		rec.Total, string(rec.Bucket), string(metricsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert score record for %s: %w", rec.Ticker, err)
	}
	return nil
}

// TopByRun returns the best records of a run. Equal totals are ordered by
// instrument id so the selection is deterministic.
func (r *Repository) TopByRun(ctx context.Context, runID string, limit int) ([]contracts.ScoreRecord, error) {
	query := `
		SELECT
			sr.id, sr.run_id, sr.instrument_id, i.ticker, i.name, sr.run_date,
			sr.performance_score, sr.volatility_score, sr.sharpe_score, sr.drawdown_score,
			sr.total_score, sr.bucket, sr.metrics
		FROM engine.score_records sr
		JOIN market.instruments i ON i.id = sr.instrument_id
		WHERE sr.run_id = $1
		ORDER BY sr.total_score DESC, sr.instrument_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.ScoreRecord, 0, limit)
	for rows.Next() {
		var (
			rec         contracts.ScoreRecord
			bucket      string
			metricsJSON []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.InstrumentID, &rec.Ticker, &rec.Name, &rec.RunDate,
			&rec.SubScores.Performance, &rec.SubScores.Volatility, &rec.SubScores.Sharpe, &rec.SubScores.Drawdown,
			&rec.Total, &bucket, &metricsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		rec.Bucket = contracts.Bucket(bucket)
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics for %s: %w", rec.Ticker, err)
			}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
