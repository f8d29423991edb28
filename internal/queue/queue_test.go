package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/config"
	"github.com/wonny/aurora/engine/pkg/redis"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    contracts.Descriptor
		wantErr bool
	}{
		{
			name: "full",
			data: `{"runId":"r1","userId":"u1","type":"full"}`,
			want: contracts.Descriptor{RunID: "r1", UserID: "u1", Kind: contracts.KindFull},
		},
		{
			name: "pac alias with extra fields",
			data: `{"runId":"r2","dbId":"x","userId":"u1","type":"pac"}`,
			want: contracts.Descriptor{RunID: "r2", UserID: "u1", Kind: contracts.KindAllocation},
		},
		{
			name: "scoring",
			data: `{"runId":"r3","userId":"u1","type":"scoring"}`,
			want: contracts.Descriptor{RunID: "r3", UserID: "u1", Kind: contracts.KindScoring},
		},
		{name: "not json", data: `runId=r1`, wantErr: true},
		{name: "missing run", data: `{"userId":"u1","type":"full"}`, wantErr: true},
		{name: "blank user", data: `{"runId":"r1","userId":"  ","type":"full"}`, wantErr: true},
		{name: "unknown type", data: `{"runId":"r1","userId":"u1","type":"rebalance"}`, wantErr: true},
		{name: "missing type", data: `{"runId":"r1","userId":"u1"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobKey(t *testing.T) {
	q := &Queue{prefix: Prefix("aurora-jobs")}

	assert.Equal(t, "bull:aurora-jobs:run-1", q.jobKey("run-1"))
	assert.Equal(t, "bull:aurora-jobs:run-1", q.jobKey("bull:aurora-jobs:run-1"))
	assert.Equal(t, "bull:aurora-jobs:wait", q.waitKey())
	assert.Equal(t, "bull:aurora-jobs:active", q.activeKey())
	assert.Equal(t, "bull:aurora-jobs:dead", q.deadKey())
}

func TestPayloadError(t *testing.T) {
	var err error = &PayloadError{Delivery: &Delivery{Key: "bull:q:7"}, Reason: "payload missing runId"}

	var perr *PayloadError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "malformed job bull:q:7: payload missing runId", err.Error())
}

func TestNew_RequiresRedis(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	_, err = New(client, "aurora-jobs")
	assert.Error(t, err)
}

func newIntegrationQueue(t *testing.T) *Queue {
	t.Helper()
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	cfg := &config.Config{
		Redis: config.RedisConfig{Host: os.Getenv("REDIS_HOST"), Port: "6379", Enabled: true},
		Queue: config.QueueConfig{PollTimeout: time.Second},
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		cfg.Redis.Port = port
	}

	client, err := redis.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	q, err := New(client, "aurora-test-"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := q.rdb.Keys(ctx, q.prefix+"*").Result()
		if len(keys) > 0 {
			q.rdb.Del(ctx, keys...)
		}
	})
	return q
}

func TestQueue_RoundTrip(t *testing.T) {
	q := newIntegrationQueue(t)
	ctx := context.Background()

	_, err := q.Dequeue(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)

	desc := contracts.Descriptor{RunID: "run-1", UserID: "user-1", Kind: contracts.KindFull}
	require.NoError(t, q.Enqueue(ctx, desc))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Waiting)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, desc, d.Descriptor)

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Waiting)
	assert.Equal(t, int64(1), stats.Active)

	require.NoError(t, q.Ack(ctx, d))
	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Active)

	exists, err := q.rdb.Exists(ctx, d.Key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestQueue_DeadLetter(t *testing.T) {
	q := newIntegrationQueue(t)
	ctx := context.Background()

	require.NoError(t, q.rdb.HSet(ctx, q.jobKey("bad"), "data", `{"runId":"x"}`).Err())
	require.NoError(t, q.rdb.LPush(ctx, q.waitKey(), "bad").Err())

	_, err := q.Dequeue(ctx, time.Second)
	var perr *PayloadError
	require.ErrorAs(t, err, &perr)

	require.NoError(t, q.DeadLetter(ctx, perr.Delivery, perr.Reason))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Active)
	assert.Equal(t, int64(1), stats.Dead)

	reason, err := q.rdb.HGet(ctx, q.jobKey("bad"), "deadReason").Result()
	require.NoError(t, err)
	assert.Contains(t, reason, "userId")
}

func TestQueue_UnreadableJobIsRequeued(t *testing.T) {
	q := newIntegrationQueue(t)
	ctx := context.Background()

	// a string key makes HGET fail with WRONGTYPE after the move to active
	require.NoError(t, q.rdb.Set(ctx, q.jobKey("broken"), "not a hash", 0).Err())
	require.NoError(t, q.rdb.LPush(ctx, q.waitKey(), "broken").Err())
	require.NoError(t, q.rdb.LPush(ctx, q.waitKey(), "newer").Err())

	_, err := q.Dequeue(ctx, time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
	var perr *PayloadError
	assert.False(t, errors.As(err, &perr), "read failures are not payload errors")

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Active)
	assert.Equal(t, int64(2), stats.Waiting)

	next, err := q.rdb.LIndex(ctx, q.waitKey(), -1).Result()
	require.NoError(t, err)
	assert.Equal(t, "broken", next, "retried on the next poll")
}
