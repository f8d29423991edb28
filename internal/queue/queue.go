package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/redis"
)

// ErrEmpty is returned by Dequeue when nothing arrived within the timeout
var ErrEmpty = errors.New("queue empty")

// Delivery is one job taken from the wait list and parked in the active list
// until it is acked or dead-lettered.
type Delivery struct {
	Element    string // value popped from wait, removed from active on ack
	Key        string // job hash key
	Descriptor contracts.Descriptor
}

// PayloadError reports a job whose hash could not be turned into a Descriptor.
// The delivery stays in the active list until DeadLetter is called.
type PayloadError struct {
	Delivery *Delivery
	Reason   string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed job %s: %s", e.Delivery.Key, e.Reason)
}

// Stats are list lengths at one instant
type Stats struct {
	Waiting int64 `json:"waiting"`
	Active  int64 `json:"active"`
	Dead    int64 `json:"dead"`
}

// Queue is a consumer/producer over a BullMQ-compatible key layout:
// bull:<name>:wait, bull:<name>:active, bull:<name>:<jobId> (hash, field "data").
// ⭐ SSOT: 잡 큐 키 레이아웃은 여기서만
type Queue struct {
	rdb    *goredis.Client
	prefix string
}

// New creates a queue over an enabled Redis client
func New(client *redis.Client, name string) (*Queue, error) {
	if client == nil || !client.Enabled() {
		return nil, fmt.Errorf("job queue requires redis")
	}
	return &Queue{rdb: client.Redis(), prefix: Prefix(name)}, nil
}

// Prefix returns the key prefix of a queue name
func Prefix(name string) string {
	return "bull:" + name + ":"
}

func (q *Queue) waitKey() string   { return q.prefix + "wait" }
func (q *Queue) activeKey() string { return q.prefix + "active" }
func (q *Queue) deadKey() string   { return q.prefix + "dead" }

// jobKey accepts either a bare job id (BullMQ) or a full hash key
func (q *Queue) jobKey(element string) string {
	if strings.HasPrefix(element, q.prefix) {
		return element
	}
	return q.prefix + element
}

// Dequeue atomically moves the oldest job from wait to active and reads its
// payload. It returns ErrEmpty after timeout and *PayloadError for a payload
// that cannot be parsed; in that case the job is still in the active list.
// When the payload cannot be read at all the job is put back at the head of
// wait so the next poll retries it.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	element, err := q.rdb.BLMove(ctx, q.waitKey(), q.activeKey(), "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("move job to active: %w", err)
	}

	d := &Delivery{Element: element, Key: q.jobKey(element)}

	data, err := q.rdb.HGet(ctx, d.Key, "data").Result()
	if errors.Is(err, goredis.Nil) {
		return nil, &PayloadError{Delivery: d, Reason: "job hash has no data field"}
	}
	if err != nil {
		readErr := fmt.Errorf("read job %s: %w", d.Key, err)
		if rqErr := q.requeue(context.WithoutCancel(ctx), element); rqErr != nil {
			return nil, errors.Join(readErr, rqErr)
		}
		return nil, readErr
	}

	desc, err := ParsePayload(data)
	if err != nil {
		return nil, &PayloadError{Delivery: d, Reason: err.Error()}
	}
	d.Descriptor = desc

	return d, nil
}

// requeue moves an element from active back to the consuming end of wait
func (q *Queue) requeue(ctx context.Context, element string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LRem(ctx, q.activeKey(), 1, element)
		pipe.RPush(ctx, q.waitKey(), element)
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeue job %s: %w", element, err)
	}
	return nil
}

// rawPayload mirrors what producers write. Extra fields are ignored.
type rawPayload struct {
	RunID  string `json:"runId"`
	UserID string `json:"userId"`
	Type   string `json:"type"`
}

// ParsePayload validates a job's data field into a Descriptor
func ParsePayload(data string) (contracts.Descriptor, error) {
	var raw rawPayload
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return contracts.Descriptor{}, fmt.Errorf("decode payload: %w", err)
	}

	if strings.TrimSpace(raw.RunID) == "" {
		return contracts.Descriptor{}, fmt.Errorf("payload missing runId")
	}
	if strings.TrimSpace(raw.UserID) == "" {
		return contracts.Descriptor{}, fmt.Errorf("payload missing userId")
	}

	kind, err := contracts.ParseJobKind(raw.Type)
	if err != nil {
		return contracts.Descriptor{}, err
	}

	return contracts.Descriptor{RunID: raw.RunID, UserID: raw.UserID, Kind: kind}, nil
}

// Ack removes the delivery from active and deletes its hash
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LRem(ctx, q.activeKey(), 1, d.Element)
		pipe.Del(ctx, d.Key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack job %s: %w", d.Key, err)
	}
	return nil
}

// DeadLetter moves the delivery from active to the dead list. The hash is
// kept and annotated with the reason for inspection.
func (q *Queue) DeadLetter(ctx context.Context, d *Delivery, reason string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LRem(ctx, q.activeKey(), 1, d.Element)
		pipe.LPush(ctx, q.deadKey(), d.Element)
		pipe.HSet(ctx, d.Key, "deadReason", reason, "deadAt", time.Now().UnixMilli())
		return nil
	})
	if err != nil {
		return fmt.Errorf("dead-letter job %s: %w", d.Key, err)
	}
	return nil
}

// Enqueue writes a job the way BullMQ producers do: job id = run id
func (q *Queue) Enqueue(ctx context.Context, desc contracts.Descriptor) error {
	data, err := json.Marshal(rawPayload{RunID: desc.RunID, UserID: desc.UserID, Type: string(desc.Kind)})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(desc.RunID),
			"name", "engine-run",
			"data", string(data),
			"timestamp", time.Now().UnixMilli(),
		)
		pipe.LPush(ctx, q.waitKey(), desc.RunID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue run %s: %w", desc.RunID, err)
	}
	return nil
}

// Stats returns the current list lengths
func (q *Queue) Stats(ctx context.Context) (*Stats, error) {
	var waiting, active, dead *goredis.IntCmd
	_, err := q.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		waiting = pipe.LLen(ctx, q.waitKey())
		active = pipe.LLen(ctx, q.activeKey())
		dead = pipe.LLen(ctx, q.deadKey())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &Stats{Waiting: waiting.Val(), Active: active.Val(), Dead: dead.Val()}, nil
}
