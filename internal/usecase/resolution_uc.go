// File: internal/usecase/resolution_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/metrics"
)

// Compile-time check
var _ PaymentResolver = (*resolverUC)(nil)

// PaymentResolver is the only writer of terminal payment states.
type PaymentResolver interface {
	// Resolve moves a pending transaction to the outcome's status and, on success,
	// activates its subscription, all in one storage transaction. Resolving a
	// terminal transaction is a no-op that returns the stored row.
	Resolve(ctx context.Context, txnID string, outcome model.PaymentOutcome) (*ResolveResult, error)
}

type ResolveResult struct {
	Transaction  *model.PaymentTransaction
	Subscription *model.Subscription // set when a success was applied
	Applied      bool
}

type resolverUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	agents   repository.AgentRepository
	tm       repository.TransactionManager
	notifier adapter.Notifier
	clock    Clock
	log      *zerolog.Logger
}

func NewPaymentResolver(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	agents repository.AgentRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	clock Clock,
	logger *zerolog.Logger,
) *resolverUC {
	return &resolverUC{
		payments: payments,
		subs:     subs,
		agents:   agents,
		tm:       tm,
		notifier: notifier,
		clock:    clock,
		log:      logger,
	}
}

func (u *resolverUC) Resolve(ctx context.Context, txnID string, outcome model.PaymentOutcome) (*ResolveResult, error) {
	if !outcome.Status.IsTerminal() {
		return nil, fmt.Errorf("resolve to %q: %w", outcome.Status, domain.ErrInvalidArgument)
	}

	res := &ResolveResult{}
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		txn, err := u.payments.FindByID(ctx, tx, txnID)
		if err != nil {
			return err
		}
		res.Transaction = txn
		if txn.Status != model.PaymentStatusPending {
			return nil
		}

		applied, err := u.payments.TransitionFromPending(ctx, tx, txn.ID, outcome)
		if err != nil {
			return err
		}
		res.Applied = applied
		if applied && outcome.Status == model.PaymentStatusSuccess {
			if res.Subscription, err = u.activate(ctx, tx, txn); err != nil {
				return err
			}
		}
		res.Transaction, err = u.payments.FindByID(ctx, tx, txnID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Error().Err(err).Str("txn_id", txnID).Str("outcome", string(outcome.Status)).
				Str("source", string(outcome.Source)).Msg("payment resolution rolled back")
		}
		return nil, err
	}

	if !res.Applied {
		u.onTerminal(ctx, res.Transaction, outcome)
		return res, nil
	}

	metrics.IncPayment(string(outcome.Status), string(outcome.Source))
	ev := u.log.Info().Str("txn_id", txnID).Str("order_id", res.Transaction.OrderID()).
		Str("status", string(outcome.Status)).Str("source", string(outcome.Source))
	if outcome.Status == model.PaymentStatusSuccess {
		metrics.AddPaymentRevenue(res.Transaction.Currency, res.Transaction.Amount)
		ev = ev.Str("subscription_id", res.Subscription.ID).Time("expires_at", *res.Subscription.SubscriptionExpiresAt)
	} else {
		ev = ev.Str("reason", outcome.Reason)
	}
	ev.Msg("payment resolved")
	return res, nil
}

// activate gives the transaction's subscription a fresh paid window and makes it
// the agent's current one.
func (u *resolverUC) activate(ctx context.Context, tx repository.Tx, txn *model.PaymentTransaction) (*model.Subscription, error) {
	now := u.clock.now()
	sub, err := u.subs.FindByID(ctx, tx, txn.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.Activate(now)
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := u.agents.SetCurrentSubscription(ctx, tx, txn.AgentID, sub.ID); err != nil {
		return nil, err
	}
	txnRef := txn.ID
	err = u.subs.AppendEvent(ctx, tx, &model.SubscriptionEvent{
		ID:             uuid.NewString(),
		SubscriptionID: sub.ID,
		AgentID:        txn.AgentID,
		Kind:           model.SubscriptionEventActivated,
		TransactionID:  &txnRef,
		OccurredAt:     now,
	})
	return sub, err
}

// onTerminal handles an outcome that arrived after the transaction was already
// resolved. Agreeing outcomes are duplicates; disagreeing ones are reported.
func (u *resolverUC) onTerminal(ctx context.Context, txn *model.PaymentTransaction, outcome model.PaymentOutcome) {
	if txn.Status == outcome.Status {
		u.log.Debug().Str("txn_id", txn.ID).Str("status", string(txn.Status)).
			Str("source", string(outcome.Source)).Msg("payment already resolved")
		return
	}

	metrics.IncTransitionConflict(string(txn.Status), string(outcome.Status))
	u.log.Warn().Str("txn_id", txn.ID).Str("order_id", txn.OrderID()).
		Str("stored", string(txn.Status)).Str("requested", string(outcome.Status)).
		Str("source", string(outcome.Source)).Str("reason", outcome.Reason).
		Msg("conflicting payment outcome ignored")

	text := fmt.Sprintf("Payment conflict: order %s is %s, %s reported %s",
		txn.OrderID(), txn.Status, outcome.Source, outcome.Status)
	if outcome.Reason != "" {
		text += " (" + outcome.Reason + ")"
	}
	if err := u.notifier.Notify(ctx, text); err != nil {
		u.log.Warn().Err(err).Msg("conflict notification failed")
	}
}
