// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	// CreateOrder reserves a pending transaction, creates the gateway order and
	// attaches its id. A gateway failure leaves no local state behind.
	CreateOrder(ctx context.Context, viewer *model.Identity, agentID, subscriptionID string) (*OrderResult, error)
}

// OrderResult is what the checkout widget needs to open the gateway.
type OrderResult struct {
	OrderID       string
	Amount        int64 // paise
	Currency      string
	KeyID         string
	Receipt       string
	TransactionID string
}

type orderUC struct {
	orgs     repository.OrganizationRepository
	agents   repository.AgentRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	gateway  adapter.PaymentGateway
	keyID    string
	clock    Clock
	log      *zerolog.Logger
}

func NewOrderUseCase(
	orgs repository.OrganizationRepository,
	agents repository.AgentRepository,
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	keyID string,
	clock Clock,
	logger *zerolog.Logger,
) *orderUC {
	return &orderUC{
		orgs:     orgs,
		agents:   agents,
		subs:     subs,
		payments: payments,
		gateway:  gateway,
		keyID:    keyID,
		clock:    clock,
		log:      logger,
	}
}

// NewReceipt returns a unique, time-sortable receipt for a gateway order.
func NewReceipt() string { return "order_" + ulid.Make().String() }

func (u *orderUC) CreateOrder(ctx context.Context, viewer *model.Identity, agentID, subscriptionID string) (*OrderResult, error) {
	agent, err := ownedAgent(ctx, repository.NoTX, u.agents, u.orgs, viewer, agentID)
	if err != nil {
		return nil, err
	}
	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.AgentID != agent.ID {
		return nil, domain.ErrNotFound
	}

	now := u.clock.now()
	txn := &model.PaymentTransaction{
		ID:             uuid.NewString(),
		AgentID:        agent.ID,
		SubscriptionID: sub.ID,
		Receipt:        NewReceipt(),
		Amount:         model.SubscriptionPrice,
		Currency:       model.SubscriptionCurrency,
		Status:         model.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, txn); err != nil {
		return nil, err
	}

	order, err := u.gateway.CreateOrder(ctx, adapter.OrderRequest{
		Amount:   model.SubscriptionPriceMinor,
		Currency: model.SubscriptionCurrency,
		Receipt:  txn.Receipt,
		Notes: map[string]string{
			"agent_id":        agent.ID,
			"subscription_id": sub.ID,
			"user_id":         viewer.UserID,
		},
	})
	if err != nil {
		if derr := u.payments.Delete(ctx, repository.NoTX, txn.ID); derr != nil {
			// the sweeper resolves the orphan once it ages past the abandon window
			u.log.Error().Err(derr).Str("txn_id", txn.ID).Str("receipt", txn.Receipt).
				Msg("failed to release reserved transaction")
		}
		u.log.Warn().Err(err).Str("agent_id", agent.ID).Str("receipt", txn.Receipt).Msg("gateway order creation failed")
		if errors.Is(err, domain.ErrGateway) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	if err := u.payments.AttachOrder(ctx, repository.NoTX, txn.ID, order.ID); err != nil {
		u.log.Error().Err(err).Str("txn_id", txn.ID).Str("order_id", order.ID).
			Msg("order created at gateway but not recorded; left for the sweeper")
		if errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: attach order: %v", domain.ErrStorage, err)
	}

	u.log.Info().Str("agent_id", agent.ID).Str("subscription_id", sub.ID).
		Str("order_id", order.ID).Str("receipt", txn.Receipt).Msg("order created")
	return &OrderResult{
		OrderID:       order.ID,
		Amount:        model.SubscriptionPriceMinor,
		Currency:      model.SubscriptionCurrency,
		KeyID:         u.keyID,
		Receipt:       txn.Receipt,
		TransactionID: txn.ID,
	}, nil
}
