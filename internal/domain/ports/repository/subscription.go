package repository

import (
	"context"

	"workforce-billing/internal/domain/model"
)

// SubscriptionRepository is the port for agent subscriptions and their history.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindCurrentByAgent follows the agent's current-subscription pointer.
	// Returns domain.ErrNotFound when the agent has none.
	FindCurrentByAgent(ctx context.Context, tx Tx, agentID string) (*model.Subscription, error)
	CountByAgent(ctx context.Context, tx Tx, agentID string) (int, error)
	AppendEvent(ctx context.Context, tx Tx, e *model.SubscriptionEvent) error
	ListEvents(ctx context.Context, tx Tx, subscriptionID string) ([]*model.SubscriptionEvent, error)
}
