package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the engine
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (operational surface only)
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig

	Engine     EngineConfig
	MarketData MarketDataConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// QueueConfig holds job queue settings
type QueueConfig struct {
	Name        string        // BullMQ queue name ("aurora-jobs")
	PollTimeout time.Duration // blocking dequeue timeout
	Backoff     time.Duration // sleep after an infrastructure error
}

// EngineConfig holds scoring and allocation parameters
type EngineConfig struct {
	// Scoring
	LookbackDays   int
	MinBars        int
	MinVolume      int64 // average daily volume, 0 = disabled
	MinAgeDays     int   // days since earliest persisted bar, 0 = disabled
	RiskFreeRate   float64
	StaleRunWindow time.Duration

	// Allocation
	MaxInstruments   int
	MinAllocationPct float64
}

// MarketDataConfig holds price provider settings
type MarketDataConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond int
	SourceOrder   []string // "provider", "store"
	CacheEnabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8001"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Queue: QueueConfig{
			Name:        getEnv("QUEUE_NAME", "aurora-jobs"),
			PollTimeout: getEnvAsDuration("QUEUE_POLL_TIMEOUT", "5s"),
			Backoff:     getEnvAsDuration("QUEUE_BACKOFF", "5s"),
		},

		Engine: EngineConfig{
			LookbackDays:     getEnvAsInt("SCORING_LOOKBACK_DAYS", 365),
			MinBars:          getEnvAsInt("SCORING_MIN_BARS", 200),
			MinVolume:        int64(getEnvAsInt("SCORING_MIN_VOLUME", 0)),
			MinAgeDays:       getEnvAsInt("SCORING_MIN_AGE_DAYS", 0),
			RiskFreeRate:     getEnvAsFloat("SCORING_RISK_FREE_RATE", 0.04),
			StaleRunWindow:   getEnvAsDuration("STALE_RUN_WINDOW", "1h"),
			MaxInstruments:   getEnvAsInt("PAC_MAX_INSTRUMENTS", 8),
			MinAllocationPct: getEnvAsFloat("PAC_MIN_ALLOCATION_PCT", 5.0),
		},

		MarketData: MarketDataConfig{
			BaseURL:       getEnv("MARKETDATA_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:       getEnvAsDuration("MARKETDATA_TIMEOUT", "20s"),
			RatePerSecond: getEnvAsInt("MARKETDATA_RATE_PER_SECOND", 2),
			SourceOrder:   getEnvAsList("MARKETDATA_SOURCE_ORDER", "provider,store"),
			CacheEnabled:  getEnvAsBool("MARKETDATA_CACHE_ENABLED", true),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.Queue.PollTimeout <= 0 || c.Queue.Backoff <= 0 {
		return fmt.Errorf("QUEUE_POLL_TIMEOUT and QUEUE_BACKOFF must be positive")
	}

	for _, src := range c.MarketData.SourceOrder {
		if src != "provider" && src != "store" {
			return fmt.Errorf("MARKETDATA_SOURCE_ORDER: unknown source %q", src)
		}
	}

	return nil
}

// Validate checks engine parameters. Also used by the YAML overlay.
func (e EngineConfig) Validate() error {
	switch {
	case e.LookbackDays <= 0:
		return fmt.Errorf("lookback days must be positive, got %d", e.LookbackDays)
	case e.MinBars < 2:
		return fmt.Errorf("min bars must be at least 2, got %d", e.MinBars)
	case e.MaxInstruments <= 0:
		return fmt.Errorf("max instruments must be positive, got %d", e.MaxInstruments)
	case e.MinAllocationPct < 0 || e.MinAllocationPct >= 100:
		return fmt.Errorf("min allocation pct must be in [0,100), got %v", e.MinAllocationPct)
	case e.MinVolume < 0 || e.MinAgeDays < 0:
		return fmt.Errorf("eligibility filters must not be negative")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		".env.local",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
