package adapter

import (
	"context"
	"time"
)

// Locker is a distributed mutual-exclusion primitive.
type Locker interface {
	// TryLock returns a token when the lock was acquired, or domain.ErrLockNotAcquired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// IdempotencyStore remembers processed external event ids.
type IdempotencyStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) error
}

// RateLimiter admits at most limit calls per key within window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
