package jobrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurora/engine/internal/contracts"
)

var (
	// ErrRunNotFound means no JobRun has the given id
	ErrRunNotFound = errors.New("job run not found")

	// ErrInvalidTransition means the run is not in the predecessor state of
	// the requested status (already running, finished, or never started)
	ErrInvalidTransition = errors.New("invalid job run transition")
)

// Repository implements contracts.RunRepository
// ⭐ SSOT: JobRun 상태 전이는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new run state repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const runColumns = `id, kind, user_id, status, started_at, completed_at, COALESCE(error, ''), created_at`

func scanRun(row pgx.Row) (*contracts.JobRun, error) {
	var (
		run    contracts.JobRun
		kind   string
		status string
	)
	if err := row.Scan(&run.ID, &kind, &run.UserID, &status, &run.StartedAt, &run.CompletedAt, &run.Error, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.Kind = contracts.JobKind(kind)
	run.Status = contracts.RunStatus(status)
	return &run, nil
}

// Create inserts a NOT_STARTED run
func (r *Repository) Create(ctx context.Context, run *contracts.JobRun) error {
	query := `
		INSERT INTO engine.runs (id, kind, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Status = contracts.StatusNotStarted

	if _, err := r.pool.Exec(ctx, query, run.ID, string(run.Kind), run.UserID, string(run.Status), run.CreatedAt); err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}
	return nil
}

// Get returns one run
func (r *Repository) Get(ctx context.Context, runID string) (*contracts.JobRun, error) {
	query := `SELECT ` + runColumns + ` FROM engine.runs WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query job run: %w", err)
	}
	return run, nil
}

// ListByUser returns the user's most recent runs
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]contracts.JobRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM engine.runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

// ListStale returns runs that have been RUNNING for longer than olderThan
func (r *Repository) ListStale(ctx context.Context, olderThan time.Duration) ([]contracts.JobRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM engine.runs
		WHERE status = $1 AND started_at < $2
		ORDER BY started_at ASC
	`
	return r.list(ctx, query, string(contracts.StatusRunning), time.Now().UTC().Add(-olderThan))
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]contracts.JobRun, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.JobRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// MarkRunning moves NOT_STARTED → RUNNING and records the start time
func (r *Repository) MarkRunning(ctx context.Context, runID string, at time.Time) error {
	return r.transition(ctx, runID, contracts.StatusRunning, `started_at = $3`, at)
}

// MarkCompleted moves RUNNING → COMPLETED
func (r *Repository) MarkCompleted(ctx context.Context, runID string, at time.Time) error {
	return r.transition(ctx, runID, contracts.StatusCompleted, `completed_at = $3`, at)
}

// MarkFailed moves RUNNING → FAILED and records the error text
func (r *Repository) MarkFailed(ctx context.Context, runID string, errText string, at time.Time) error {
	return r.transition(ctx, runID, contracts.StatusFailed, `completed_at = $3, error = $5`, at, errText)
}

// transition is a guarded UPDATE: it only matches rows in the predecessor
// state, so status can never move backwards or be set twice.
func (r *Repository) transition(ctx context.Context, runID string, next contracts.RunStatus, set string, args ...interface{}) error {
	from, ok := contracts.Predecessor(next)
	if !ok {
		return fmt.Errorf("%s: no transition into %s: %w", runID, next, ErrInvalidTransition)
	}

	query := `
		UPDATE engine.runs
		SET status = $2, ` + set + `
		WHERE id = $1 AND status = $4
	`

	params := append([]interface{}{runID, string(next)}, args[0], string(from))
	params = append(params, args[1:]...)

	tag, err := r.pool.Exec(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("update job run to %s: %w", next, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := r.Get(ctx, runID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%s: %s → %s: %w", runID, current.Status, next, ErrInvalidTransition)
}
