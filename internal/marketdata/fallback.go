package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// FallbackSource tries each source in order and returns the first series with
// at least minBars bars. When none qualifies it returns the longest series it
// saw together with contracts.ErrInsufficientData.
// ⭐ SSOT: 가격 소스 우선순위 결정은 여기서만
type FallbackSource struct {
	sources []contracts.PriceSource
	minBars int
	logger  *logger.Logger
}

// NewFallbackSource creates a fallback chain
func NewFallbackSource(sources []contracts.PriceSource, minBars int, log *logger.Logger) *FallbackSource {
	return &FallbackSource{sources: sources, minBars: minBars, logger: log}
}

// Name implements contracts.PriceSource
func (f *FallbackSource) Name() string {
	return "fallback"
}

// History implements contracts.PriceSource
func (f *FallbackSource) History(ctx context.Context, inst contracts.Instrument, from, to time.Time) ([]contracts.PriceBar, error) {
	var (
		best []contracts.PriceBar
		errs []error
	)

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log := f.logger.WithFields(map[string]interface{}{
			"ticker": inst.Ticker,
			"source": src.Name(),
		})

		bars, err := src.History(ctx, inst, from, to)
		if err != nil {
			log.WithError(err).Warn("Price source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		if len(bars) >= f.minBars {
			return bars, nil
		}

		log.WithFields(map[string]interface{}{
			"bars":     len(bars),
			"min_bars": f.minBars,
		}).Debug("Price source returned a short series")

		if len(bars) > len(best) {
			best = bars
		}
	}

	if best == nil && len(errs) == len(f.sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return best, fmt.Errorf("%s: %d bars: %w", inst.Ticker, len(best), contracts.ErrInsufficientData)
}

// BuildSource assembles the configured source order from the available
// sources. Unknown or unavailable names are reported as an error.
func BuildSource(order []string, available map[string]contracts.PriceSource, minBars int, log *logger.Logger) (*FallbackSource, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("empty source order")
	}

	sources := make([]contracts.PriceSource, 0, len(order))
	for _, name := range order {
		src, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("price source %q not available", name)
		}
		sources = append(sources, src)
	}

	return NewFallbackSource(sources, minBars, log), nil
}
