package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/aurora/engine/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), MarketDataRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != MarketDataRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", MarketDataRateLimit.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), MarketDataRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []int{1, 2}, TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result []int
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestPriceHistoryKey(t *testing.T) {
	from := time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)

	got := PriceHistoryKey("VWCE.DE", from, to)
	want := "history:VWCE.DE:2025-10-16:2026-10-16"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
