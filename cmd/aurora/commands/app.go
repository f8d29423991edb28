package commands

import (
	"context"
	"fmt"

	"github.com/wonny/aurora/engine/internal/allocation"
	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/internal/engineconfig"
	"github.com/wonny/aurora/engine/internal/external/yahoo"
	"github.com/wonny/aurora/engine/internal/jobrun"
	"github.com/wonny/aurora/engine/internal/marketdata"
	"github.com/wonny/aurora/engine/internal/queue"
	"github.com/wonny/aurora/engine/internal/scoring"
	"github.com/wonny/aurora/engine/pkg/config"
	"github.com/wonny/aurora/engine/pkg/database"
	"github.com/wonny/aurora/engine/pkg/httputil"
	"github.com/wonny/aurora/engine/pkg/logger"
	"github.com/wonny/aurora/engine/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	runs        *jobrun.Repository
	instruments *marketdata.Repository
	queue       *queue.Queue // nil when Redis is disabled
	source      contracts.PriceSource
	scorer      *scoring.Engine
	allocator   *allocation.Engine
	submitter   *jobrun.Submitter
}

// bootstrap loads config, applies the engine profile and connects to
// PostgreSQL and Redis. Callers must Close the returned app.
func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Engine profile overlay
	effective, hash, err := engineconfig.Resolve(engineConfigFile, cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("resolve engine config: %w", err)
	}
	cfg.Engine = effective

	log.WithFields(map[string]interface{}{
		"profile":     engineConfigFile,
		"config_hash": hash,
		"env":         cfg.Env,
	}).Info("Engine config resolved")

	// 4. Connect to database
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Connect to Redis
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, redis: rc}

	// 6. Repositories
	a.runs = jobrun.NewRepository(db.Pool)
	a.instruments = marketdata.NewRepository(db.Pool)
	scores := scoring.NewRepository(db.Pool)
	policies := allocation.NewRepository(db.Pool)

	// 7. Queue
	if rc.Enabled() {
		if a.queue, err = queue.New(rc, cfg.Queue.Name); err != nil {
			a.Close()
			return nil, fmt.Errorf("init queue: %w", err)
		}
		a.submitter = jobrun.NewSubmitter(a.runs, a.queue)
	}

	// 8. Price sources
	if a.source, err = a.buildPriceSource(); err != nil {
		a.Close()
		return nil, err
	}

	// 9. Stages
	a.scorer = scoring.NewEngine(a.instruments, a.instruments, scores, a.source, scoring.ParamsFromConfig(cfg.Engine), log)
	a.allocator = allocation.NewEngine(scores, policies, policies, allocation.ParamsFromConfig(cfg.Engine), log)

	return a, nil
}

// buildPriceSource assembles the ordered fallback chain. The provider goes
// through the shared rate limiter and, when enabled, the Redis cache.
func (a *app) buildPriceSource() (contracts.PriceSource, error) {
	httpClient := httputil.New(a.cfg, a.log)
	if a.redis.Enabled() {
		limiter := redis.NewRateLimiter(a.redis, "aurora")
		httpClient = httpClient.WithRateLimiter(limiter, redis.MarketDataRateLimit)
	}

	var provider contracts.PriceSource = yahoo.NewClient(httpClient, a.cfg.MarketData.BaseURL, a.cfg.MarketData.RatePerSecond, a.log)
	if a.cfg.MarketData.CacheEnabled && a.redis.Enabled() {
		cache := redis.NewCache(a.redis, "aurora")
		provider = marketdata.NewCachedSource(provider, cache, redis.TTLDaily, a.log)
	}

	available := map[string]contracts.PriceSource{
		yahoo.SourceName:           provider,
		marketdata.StoreSourceName: marketdata.NewStoreSource(a.instruments),
	}

	src, err := marketdata.BuildSource(a.cfg.MarketData.SourceOrder, available, a.cfg.Engine.MinBars, a.log)
	if err != nil {
		return nil, fmt.Errorf("build price source: %w", err)
	}
	return src, nil
}

// requireQueue fails commands that need Redis when it is disabled
func (a *app) requireQueue() error {
	if a.queue == nil {
		return fmt.Errorf("redis is disabled (REDIS_ENABLED=false); the job queue is unavailable")
	}
	return nil
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
