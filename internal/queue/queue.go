// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/metrics"
)

// DefaultKey is the Redis list the pipeline's jobs travel through.
const DefaultKey = "renditiond:jobs"

// Queue is a durable FIFO backed by a Redis list.
type Queue struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// New creates a queue on the given Redis client.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{
		client: client,
		key:    key,
		logger: log.WithComponent("queue"),
	}
}

// Enqueue pushes a task envelope. A missing task ID is filled in; EnqueuedAt
// is always stamped here.
func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.EnqueuedAt = time.Now().UTC()

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s for record %s: %w", t.Kind, t.RecordID, err)
	}

	if depth, err := q.client.LLen(ctx, q.key).Result(); err == nil {
		metrics.SetQueueDepth(depth)
	}

	q.logger.Info().
		Str(log.FieldEvent, "queue.enqueued").
		Str(log.FieldJobID, t.ID).
		Str("kind", string(t.Kind)).
		Str(log.FieldRecordID, t.RecordID).
		Int("timeout_s", t.TimeoutSeconds).
		Msg("task enqueued")
	return nil
}

// Depth returns the number of waiting tasks.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// dequeue blocks up to wait for the next task. A nil task with nil error
// means the wait timed out.
func (q *Queue) dequeue(ctx context.Context, wait time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	var t Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &t, nil
}
