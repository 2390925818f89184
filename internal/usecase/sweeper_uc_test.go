//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/usecase"
)

func resultFor(t *testing.T, sum *usecase.SweepSummary, orderID string) usecase.SweepResult {
	t.Helper()
	for _, r := range sum.Results {
		if r.OrderID == orderID {
			return r
		}
	}
	t.Fatalf("no sweep result for %s in %+v", orderID, sum.Results)
	return usecase.SweepResult{}
}

func TestSweeperUseCase_AbandonedOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.newFixture(t, "user-1")
	order := env.newOrder(t, f, env.withTrial(t, f))

	env.clock.Advance(4 * time.Minute)
	sum, err := env.sweeper.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Checked != 0 || sum.Message != "No pending transactions to check" {
		t.Fatalf("expected a fresh order to be excluded, got %+v", sum)
	}

	env.clock.Advance(2 * time.Minute) // T0+6m
	sum, err = env.sweeper.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r := resultFor(t, sum, order.OrderID); r.Status != usecase.SweepPending {
		t.Fatalf("expected a young order to be left pending, got %s", r.Status)
	}
	if env.txnByOrder(t, order.OrderID).Status != model.PaymentStatusPending {
		t.Fatal("expected transaction to stay pending")
	}

	env.clock.Advance(5 * time.Minute) // T0+11m
	sum, err = env.sweeper.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.UpdatedToFailed != 1 {
		t.Fatalf("expected one failed update, got %+v", sum)
	}
	txn := env.txnByOrder(t, order.OrderID)
	if txn.Status != model.PaymentStatusFailed || *txn.FailureReason != model.ReasonNotAttempted {
		t.Errorf("expected failed with %q, got %+v", model.ReasonNotAttempted, txn)
	}
	if len(env.notifier.Messages()) != 1 {
		t.Errorf("expected a sweep report, got %v", env.notifier.Messages())
	}
}

func TestSweeperUseCase_Outcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("should activate orders the gateway reports paid", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		order := env.newOrder(t, f, env.withTrial(t, f))
		env.gateway.Pay(order.OrderID)
		env.clock.Advance(6 * time.Minute)

		sum, err := env.sweeper.Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if r := resultFor(t, sum, order.OrderID); r.Status != usecase.SweepUpdatedToSuccess {
			t.Fatalf("expected success, got %+v", r)
		}
		cur := env.currentSub(t, f.agent.ID)
		if cur.Status != model.SubscriptionStatusActive || !cur.SubscriptionStartedAt.Equal(env.clock.Now()) {
			t.Errorf("expected activation at sweep time, got %+v", cur)
		}
	})

	t.Run("should fail attempted orders past the abandon window", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		order := env.newOrder(t, f, env.withTrial(t, f))
		env.gateway.Fail(order.OrderID, "Card declined")
		env.clock.Advance(11 * time.Minute)

		if _, err := env.sweeper.Run(ctx); err != nil {
			t.Fatalf("Run: %v", err)
		}
		txn := env.txnByOrder(t, order.OrderID)
		if txn.Status != model.PaymentStatusFailed || *txn.FailureReason != model.ReasonNotCompleted {
			t.Errorf("expected failed with %q, got %+v", model.ReasonNotCompleted, txn)
		}
	})

	t.Run("should skip unexpected gateway statuses", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		order := env.newOrder(t, f, env.withTrial(t, f))
		env.gateway.SetStatus(order.OrderID, "refunded")
		env.clock.Advance(11 * time.Minute)

		sum, err := env.sweeper.Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if r := resultFor(t, sum, order.OrderID); r.Status != usecase.SweepSkipped {
			t.Errorf("expected skipped, got %s", r.Status)
		}
	})

	t.Run("should record gateway errors per order and report them", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		order := env.newOrder(t, f, env.withTrial(t, f))
		env.gateway.FailFetches(fmt.Errorf("%w: timeout", domain.ErrGateway))
		env.clock.Advance(11 * time.Minute)

		sum, err := env.sweeper.Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		r := resultFor(t, sum, order.OrderID)
		if r.Status != usecase.SweepError || r.Error == "" {
			t.Errorf("expected an error result, got %+v", r)
		}
		if env.txnByOrder(t, order.OrderID).Status != model.PaymentStatusPending {
			t.Error("expected transaction to stay pending")
		}
		if len(env.notifier.Messages()) != 1 {
			t.Errorf("expected an error report, got %v", env.notifier.Messages())
		}
	})
}

func TestSweeperUseCase_Orphans(t *testing.T) {
	ctx := context.Background()

	t.Run("should attach an order created at the gateway but never recorded", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		sub := env.withTrial(t, f)
		env.store.FailNext("payments.AttachOrder", domain.ErrStorage)
		if _, err := env.orders.CreateOrder(ctx, f.viewer, f.agent.ID, sub.ID); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
		txns, _ := env.store.Payments().ListByAgent(ctx, nil, f.agent.ID, 0)
		order, err := env.gateway.FindOrderByReceipt(ctx, txns[0].Receipt)
		if err != nil {
			t.Fatalf("FindOrderByReceipt: %v", err)
		}
		env.gateway.Pay(order.ID)
		env.clock.Advance(6 * time.Minute)

		sum, err := env.sweeper.Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if r := resultFor(t, sum, order.ID); r.Status != usecase.SweepUpdatedToSuccess {
			t.Fatalf("expected the healed order to succeed, got %+v", r)
		}
		txn := env.txnByOrder(t, order.ID)
		if txn.Status != model.PaymentStatusSuccess {
			t.Errorf("expected success, got %s", txn.Status)
		}
	})

	t.Run("should fail reservations the gateway never saw", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.newFixture(t, "user-1")
		sub := env.withTrial(t, f)
		now := env.clock.Now()
		if err := env.store.Payments().Save(ctx, nil, &model.PaymentTransaction{
			ID: "txn-orphan", AgentID: f.agent.ID, SubscriptionID: sub.ID, Receipt: usecase.NewReceipt(),
			Amount: 800, Currency: "INR", Status: model.PaymentStatusPending, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		env.clock.Advance(6 * time.Minute)
		sum, err := env.sweeper.Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if r := resultFor(t, sum, ""); r.Status != usecase.SweepPending {
			t.Fatalf("expected a young orphan to wait, got %s", r.Status)
		}

		env.clock.Advance(5 * time.Minute)
		if _, err := env.sweeper.Run(ctx); err != nil {
			t.Fatalf("Run: %v", err)
		}
		txn, _ := env.store.Payments().FindByID(ctx, nil, "txn-orphan")
		if txn.Status != model.PaymentStatusFailed || *txn.FailureReason != model.ReasonOrderNeverCreated {
			t.Errorf("expected failed with %q, got %+v", model.ReasonOrderNeverCreated, txn)
		}
	})
}

func TestSweeperUseCase_Lock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	token, err := env.locker.TryLock(ctx, usecase.SweepLockKey, time.Minute)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if _, err := env.sweeper.Run(ctx); !errors.Is(err, domain.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}

	if err := env.locker.Unlock(ctx, usecase.SweepLockKey, token); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := env.sweeper.Run(ctx); err != nil {
		t.Fatalf("expected the run to proceed once the lock is free, got %v", err)
	}
	// the run releases its own lock
	if _, err := env.sweeper.Run(ctx); err != nil {
		t.Fatalf("expected consecutive runs to succeed, got %v", err)
	}
}
