package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/bhajan-library/internal/ports"
)

// DefaultAuditQueueKey is the list holding audit entries awaiting replay.
const DefaultAuditQueueKey = "audit:retry"

// AuditQueue is a FIFO of audit entries backed by a Redis list.
type AuditQueue struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

var _ ports.AuditQueue = (*AuditQueue)(nil)

// NewAuditQueue creates a queue on key, or DefaultAuditQueueKey when key is empty.
func NewAuditQueue(client redis.UniversalClient, key string, logger *slog.Logger) *AuditQueue {
	if key == "" {
		key = DefaultAuditQueueKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditQueue{client: client, key: key, logger: logger.With("component", "audit_queue")}
}

// Push appends item to the tail of the queue.
func (q *AuditQueue) Push(ctx context.Context, item ports.QueuedAudit) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queued audit: %w", err)
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

// Pop removes up to n items from the head of the queue. Undecodable items are logged and dropped.
func (q *AuditQueue) Pop(ctx context.Context, n int) ([]ports.QueuedAudit, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := q.client.LPopCount(ctx, q.key, n).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis lpop: %w", err)
	}

	out := make([]ports.QueuedAudit, 0, len(raw))
	for _, r := range raw {
		var item ports.QueuedAudit
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			q.logger.Error("dropping undecodable audit entry", "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Len returns the number of queued items.
func (q *AuditQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
