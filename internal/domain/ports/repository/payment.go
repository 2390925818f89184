package repository

import (
	"context"
	"time"

	"workforce-billing/internal/domain/model"
)

// PaymentRepository is the port for payment transactions.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentTransaction) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentTransaction, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PaymentTransaction, error)
	ListByAgent(ctx context.Context, tx Tx, agentID string, limit int) ([]*model.PaymentTransaction, error)
	// AttachOrder records the gateway order id of a reserved transaction.
	AttachOrder(ctx context.Context, tx Tx, id, orderID string) error
	// ListPendingOlderThan returns pending transactions created before cutoff, oldest first.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.PaymentTransaction, error)
	// TransitionFromPending applies outcome only when the row is still pending.
	// It reports whether the row was changed.
	TransitionFromPending(ctx context.Context, tx Tx, id string, outcome model.PaymentOutcome) (bool, error)
}
