package notify

import (
	"context"
	"time"

	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/infra/worker"
)

var _ adapter.Notifier = (*AsyncNotifier)(nil)

// AsyncNotifier hands messages to a worker pool so callers never wait on delivery.
type AsyncNotifier struct {
	next    adapter.Notifier
	pool    *worker.Pool
	timeout time.Duration
}

func NewAsyncNotifier(next adapter.Notifier, pool *worker.Pool, timeout time.Duration) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncNotifier{next: next, pool: pool, timeout: timeout}
}

// Notify queues the message. It fails only when the pool is saturated.
func (n *AsyncNotifier) Notify(_ context.Context, text string) error {
	return n.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		return n.next.Notify(ctx, text)
	})
}
