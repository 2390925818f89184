package redis

import (
	"context"
	"time"

	"workforce-billing/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
)

var _ adapter.IdempotencyStore = (*IdempotencyStore)(nil)

const idempotencyPrefix = "webhook:event:"

// IdempotencyStore remembers processed webhook event ids for a bounded time.
type IdempotencyStore struct {
	cli *redis.Client
}

func NewIdempotencyStore(c *Client) *IdempotencyStore {
	return &IdempotencyStore{cli: c.cli}
}

func (s *IdempotencyStore) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.cli.Exists(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *IdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	return s.cli.Set(ctx, idempotencyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}
