package redis

import (
	"context"
	"sync"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/ports/adapter"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// In-process fallbacks used when redis.url is empty (single replica, dev mode).

var (
	_ adapter.Locker           = (*LocalLocker)(nil)
	_ adapter.IdempotencyStore = (*LocalIdempotencyStore)(nil)
	_ adapter.RateLimiter      = (*LocalRateLimiter)(nil)
)

type localLock struct {
	token   string
	expires time.Time
}

type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]localLock
	now   func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]localLock), now: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if cur, ok := l.locks[key]; ok && now.Before(cur.expires) {
		return "", domain.ErrLockNotAcquired
	}
	token := uuid.NewString()
	l.locks[key] = localLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.locks[key]; ok && cur.token == token {
		delete(l.locks, key)
	}
	return nil
}

// localPruneEvery bounds how often the fallbacks scan for stale keys.
const localPruneEvery = time.Minute

type LocalIdempotencyStore struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	now       func() time.Time
	lastPrune time.Time
}

func NewLocalIdempotencyStore() *LocalIdempotencyStore {
	return &LocalIdempotencyStore{seen: make(map[string]time.Time), now: time.Now}
}

func (s *LocalIdempotencyStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.seen[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.seen, key)
		return false, nil
	}
	return true, nil
}

// MarkProcessed records key until ttl elapses. Event ids are rarely looked up
// again, so expired entries are dropped here.
func (s *LocalIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastPrune) >= localPruneEvery {
		for k, exp := range s.seen {
			if !now.Before(exp) {
				delete(s.seen, k)
			}
		}
		s.lastPrune = now
	}
	s.seen[key] = now.Add(ttl)
	return nil
}

func (s *LocalIdempotencyStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

type localBucket struct {
	lim    *rate.Limiter
	window time.Duration
	last   time.Time
}

// LocalRateLimiter keeps one token bucket per key. A bucket idle for a whole
// window has refilled, so it is dropped and recreated on demand.
type LocalRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	now       func() time.Time
	lastPrune time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{buckets: make(map[string]*localBucket), now: time.Now}
}

func (r *LocalRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastPrune) >= localPruneEvery {
		for k, b := range r.buckets {
			if now.Sub(b.last) >= b.window {
				delete(r.buckets, k)
			}
		}
		r.lastPrune = now
	}
	b, ok := r.buckets[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit), window: window}
		r.buckets[key] = b
	}
	b.last = now
	return b.lim.AllowN(now, 1), nil
}

func (r *LocalRateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
