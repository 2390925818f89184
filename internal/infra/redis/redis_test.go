//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"workforce-billing/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	l := NewLocker(c)

	t.Run("should refuse a held lock", func(t *testing.T) {
		tok, err := l.TryLock(ctx, "sweeper", time.Minute)
		require.NoError(t, err)
		require.NotEmpty(t, tok)

		_, err = l.TryLock(ctx, "sweeper", time.Minute)
		assert.ErrorIs(t, err, domain.ErrLockNotAcquired)

		require.NoError(t, l.Unlock(ctx, "sweeper", tok))
		_, err = l.TryLock(ctx, "sweeper", time.Minute)
		assert.NoError(t, err)
		mr.Del("sweeper")
	})

	t.Run("should not release a lock owned by another token", func(t *testing.T) {
		tok, err := l.TryLock(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NoError(t, l.Unlock(ctx, "k", "someone-else"))

		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, tok, got)
	})

	t.Run("should expire with ttl", func(t *testing.T) {
		_, err := l.TryLock(ctx, "ttl", time.Second)
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)
		_, err = l.TryLock(ctx, "ttl", time.Second)
		assert.NoError(t, err)
	})
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	s := NewIdempotencyStore(c)

	seen, err := s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkProcessed(ctx, "evt_1", time.Hour))
	seen, err = s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Hour)
	seen, err = s.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	r := NewRateLimiter(c)
	key := "rate_limit:u1:create_order"

	for i := 0; i < 3; i++ {
		ok, err := r.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := r.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = r.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalFallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("locker", func(t *testing.T) {
		l := NewLocalLocker()
		tok, err := l.TryLock(ctx, "k", time.Minute)
		require.NoError(t, err)
		_, err = l.TryLock(ctx, "k", time.Minute)
		assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
		require.NoError(t, l.Unlock(ctx, "k", tok))
		_, err = l.TryLock(ctx, "k", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("idempotency store expires entries", func(t *testing.T) {
		now := time.Now()
		s := NewLocalIdempotencyStore()
		s.now = func() time.Time { return now }
		require.NoError(t, s.MarkProcessed(ctx, "e", time.Minute))
		seen, _ := s.Seen(ctx, "e")
		assert.True(t, seen)
		now = now.Add(2 * time.Minute)
		seen, _ = s.Seen(ctx, "e")
		assert.False(t, seen)
	})

	t.Run("rate limiter", func(t *testing.T) {
		r := NewLocalRateLimiter()
		for i := 0; i < 2; i++ {
			ok, _ := r.Allow(ctx, "k", 2, time.Hour)
			assert.True(t, ok)
		}
		ok, _ := r.Allow(ctx, "k", 2, time.Hour)
		assert.False(t, ok)
	})

	t.Run("idempotency store drops expired keys on write", func(t *testing.T) {
		now := time.Now()
		s := NewLocalIdempotencyStore()
		s.now = func() time.Time { return now }
		for _, id := range []string{"evt_1", "evt_2", "evt_3"} {
			require.NoError(t, s.MarkProcessed(ctx, id, time.Minute))
		}
		assert.Equal(t, 3, s.size())

		now = now.Add(2 * time.Minute)
		require.NoError(t, s.MarkProcessed(ctx, "evt_4", time.Minute))
		assert.Equal(t, 1, s.size())
	})

	t.Run("rate limiter drops idle buckets", func(t *testing.T) {
		now := time.Now()
		r := NewLocalRateLimiter()
		r.now = func() time.Time { return now }
		for _, k := range []string{"u1", "u2", "u3"} {
			ok, _ := r.Allow(ctx, k, 2, time.Minute)
			assert.True(t, ok)
		}
		assert.Equal(t, 3, r.size())

		now = now.Add(2 * time.Minute)
		ok, _ := r.Allow(ctx, "u4", 2, time.Minute)
		assert.True(t, ok)
		assert.Equal(t, 1, r.size())
	})
}
