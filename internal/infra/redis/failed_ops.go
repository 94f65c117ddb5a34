package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/jobctl/internal/core/domain"
)

// entryTTL bounds how long a parked operation's payload survives. An entry
// that has not been replayed within this window is stale anyway.
const entryTTL = 24 * time.Hour

// FailedOpQueue stores operations that exhausted their retries, ordered by
// retry count so the least-attempted entry is replayed first.
type FailedOpQueue struct {
	rdb *redis.Client
}

// NewFailedOpQueue creates a Redis-backed failed-operation queue.
func NewFailedOpQueue(client *Client) *FailedOpQueue {
	return &FailedOpQueue{rdb: client.rdb}
}

// Key helpers
func queueKey() string {
	return "failed_ops"
}

func opKey(id string) string {
	return fmt.Sprintf("failed_op:%s", id)
}

// Add parks a failed operation for later replay.
func (q *FailedOpQueue) Add(ctx context.Context, op *domain.FailedOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	if err := q.rdb.Set(ctx, opKey(op.ID), data, entryTTL).Err(); err != nil {
		return fmt.Errorf("failed to set operation: %w", err)
	}

	// Sorted set scored by retry count, lower = replay first
	if err := q.rdb.ZAdd(ctx, queueKey(), redis.Z{
		Score:  float64(op.RetryCount),
		Member: op.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// Next retrieves the next operation to replay without removing it.
// Returns nil when the queue is empty.
func (q *FailedOpQueue) Next(ctx context.Context) (*domain.FailedOperation, error) {
	results, err := q.rdb.ZRange(ctx, queueKey(), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	id := results[0]
	data, err := q.rdb.Get(ctx, opKey(id)).Bytes()
	if err == redis.Nil {
		// Payload expired but ID still queued, drop it
		q.rdb.ZRem(ctx, queueKey(), id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	var op domain.FailedOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}
	return &op, nil
}

// Remove drops a replayed operation from the queue.
func (q *FailedOpQueue) Remove(ctx context.Context, id string) error {
	if err := q.rdb.ZRem(ctx, queueKey(), id).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	if err := q.rdb.Del(ctx, opKey(id)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}

// Depth returns the number of parked operations.
func (q *FailedOpQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.rdb.ZCard(ctx, queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return n, nil
}
