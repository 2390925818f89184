// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// ActivateTrial starts the one-time 30-day trial of an agent.
	ActivateTrial(ctx context.Context, viewer *model.Identity, agentID string) (*model.Subscription, error)
	// Current returns the agent's current subscription evaluated at now, with its history.
	Current(ctx context.Context, viewer *model.Identity, agentID string) (*SubscriptionView, error)
}

// SubscriptionView is a subscription evaluated by wall clock.
type SubscriptionView struct {
	Subscription *model.Subscription
	State        model.SubscriptionState
	DaysLeft     int
	Events       []*model.SubscriptionEvent
}

type subscriptionUC struct {
	orgs   repository.OrganizationRepository
	agents repository.AgentRepository
	subs   repository.SubscriptionRepository
	tm     repository.TransactionManager
	clock  Clock
	log    *zerolog.Logger
}

func NewSubscriptionUseCase(
	orgs repository.OrganizationRepository,
	agents repository.AgentRepository,
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	clock Clock,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{orgs: orgs, agents: agents, subs: subs, tm: tm, clock: clock, log: logger}
}

func (u *subscriptionUC) ActivateTrial(ctx context.Context, viewer *model.Identity, agentID string) (*model.Subscription, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	var sub *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The agent row lock serializes concurrent activations.
		agent, err := ownedAgent(ctx, tx, u.agents, u.orgs, viewer, agentID)
		if err != nil {
			return err
		}
		if agent.CurrentSubscriptionID != nil {
			return domain.ErrAlreadyActivated
		}
		n, err := u.subs.CountByAgent(ctx, tx, agent.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAlreadyActivated
		}

		now := u.clock.now()
		sub, err = model.NewTrialSubscription(uuid.NewString(), agent.ID, now)
		if err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.agents.SetCurrentSubscription(ctx, tx, agent.ID, sub.ID); err != nil {
			return err
		}
		return u.subs.AppendEvent(ctx, tx, &model.SubscriptionEvent{
			ID:             uuid.NewString(),
			SubscriptionID: sub.ID,
			AgentID:        agent.ID,
			Kind:           model.SubscriptionEventTrialStarted,
			OccurredAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTrialActivated()
	u.log.Info().Str("agent_id", agentID).Str("subscription_id", sub.ID).
		Time("trial_expires_at", *sub.TrialExpiresAt).Msg("trial activated")
	return sub, nil
}

func (u *subscriptionUC) Current(ctx context.Context, viewer *model.Identity, agentID string) (*SubscriptionView, error) {
	agent, err := ownedAgent(ctx, repository.NoTX, u.agents, u.orgs, viewer, agentID)
	if err != nil {
		return nil, err
	}
	sub, err := u.subs.FindCurrentByAgent(ctx, repository.NoTX, agent.ID)
	if err != nil {
		return nil, err
	}
	events, err := u.subs.ListEvents(ctx, repository.NoTX, sub.ID)
	if err != nil {
		return nil, err
	}
	now := u.clock.now()
	return &SubscriptionView{
		Subscription: sub,
		State:        model.State(sub, now),
		DaysLeft:     model.DaysLeft(sub, now),
		Events:       events,
	}, nil
}
