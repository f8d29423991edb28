package marketdata

import (
	"context"
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/logger"
	"github.com/wonny/aurora/engine/pkg/redis"
)

// cacher is the subset of *redis.Cache used here
type cacher interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedSource memoizes another source's responses per ticker and window.
// Cache failures degrade to a direct call.
type CachedSource struct {
	inner  contracts.PriceSource
	cache  cacher
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps inner with a cache
func NewCachedSource(inner contracts.PriceSource, cache cacher, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachedSource{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// Name reports the wrapped source's name
func (s *CachedSource) Name() string {
	return s.inner.Name()
}

// History implements contracts.PriceSource
func (s *CachedSource) History(ctx context.Context, inst contracts.Instrument, from, to time.Time) ([]contracts.PriceBar, error) {
	key := redis.PriceHistoryKey(inst.Ticker, from, to)
	log := s.logger.WithFields(map[string]interface{}{"ticker": inst.Ticker, "source": s.inner.Name()})

	var cached []contracts.PriceBar
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.WithError(err).Warn("Price cache read failed")
	} else if hit {
		log.Debug("Price cache hit")
		return cached, nil
	}

	bars, err := s.inner.History(ctx, inst, from, to)
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		if err := s.cache.Set(ctx, key, bars, s.ttl); err != nil {
			log.WithError(err).Warn("Price cache write failed")
		}
	}

	return bars, nil
}
