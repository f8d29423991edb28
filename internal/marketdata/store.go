package marketdata

import (
	"context"
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// StoreSourceName identifies the persisted history in config and logs
const StoreSourceName = "store"

// StoreSource serves history from the persisted daily prices
type StoreSource struct {
	prices contracts.PriceRepository
}

// NewStoreSource wraps a price repository as a PriceSource
func NewStoreSource(prices contracts.PriceRepository) *StoreSource {
	return &StoreSource{prices: prices}
}

// Name implements contracts.PriceSource
func (s *StoreSource) Name() string {
	return StoreSourceName
}

// History implements contracts.PriceSource
func (s *StoreSource) History(ctx context.Context, inst contracts.Instrument, from, to time.Time) ([]contracts.PriceBar, error) {
	return s.prices.GetByInstrumentAndDateRange(ctx, inst.ID, from, to)
}
