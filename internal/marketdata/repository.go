package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// Repository implements contracts.InstrumentRepository and contracts.PriceRepository
// ⭐ SSOT: 종목/가격 조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new market data repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByClass returns every instrument of a class ordered by id
func (r *Repository) ListByClass(ctx context.Context, class contracts.InstrumentClass) ([]contracts.Instrument, error) {
	query := `
		SELECT id, ticker, COALESCE(name, ''), instrument_type
		FROM market.instruments
		WHERE instrument_type = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, string(class))
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []contracts.Instrument
	for rows.Next() {
		var (
			inst contracts.Instrument
			cls  string
		)
		if err := rows.Scan(&inst.ID, &inst.Ticker, &inst.Name, &cls); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		inst.Class = contracts.InstrumentClass(cls)
		instruments = append(instruments, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return instruments, nil
}

// GetByTicker looks up one instrument. Used by the one-off scoring command.
func (r *Repository) GetByTicker(ctx context.Context, ticker string) (*contracts.Instrument, error) {
	query := `
		SELECT id, ticker, COALESCE(name, ''), instrument_type
		FROM market.instruments
		WHERE ticker = $1
	`

	var (
		inst contracts.Instrument
		cls  string
	)
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&inst.ID, &inst.Ticker, &inst.Name, &cls)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instrument %s not found", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("query instrument %s: %w", ticker, err)
	}
	inst.Class = contracts.InstrumentClass(cls)
	return &inst, nil
}

// GetByInstrumentAndDateRange retrieves bars within [from, to] ascending
func (r *Repository) GetByInstrumentAndDateRange(ctx context.Context, instrumentID string, from, to time.Time) ([]contracts.PriceBar, error) {
	query := `
		SELECT instrument_id, trade_date, open, high, low, close, volume
		FROM market.daily_prices
		WHERE instrument_id = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, instrumentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.InstrumentID, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan daily price: %w", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bars, nil
}

// EarliestDate returns the first stored trade date for an instrument
func (r *Repository) EarliestDate(ctx context.Context, instrumentID string) (time.Time, bool, error) {
	query := `
		SELECT MIN(trade_date)
		FROM market.daily_prices
		WHERE instrument_id = $1
	`

	var earliest *time.Time
	if err := r.pool.QueryRow(ctx, query, instrumentID).Scan(&earliest); err != nil {
		return time.Time{}, false, fmt.Errorf("query earliest date: %w", err)
	}
	if earliest == nil {
		return time.Time{}, false, nil
	}
	return *earliest, true, nil
}
