package adapter

import "context"

// Notifier delivers short operational alerts (sweep summaries, payment conflicts).
// Delivery is best effort; callers log and continue on error.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
