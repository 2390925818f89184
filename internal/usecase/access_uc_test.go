//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/usecase"
)

func TestAccessUseCase_Decide(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.newFixture(t, "user-1")
	other := env.newFixture(t, "user-2")

	billing := usecase.BillingPath(owner.org.ID, owner.agent.ID)

	t.Run("should send anonymous viewers to login", func(t *testing.T) {
		d := env.access.Decide(ctx, nil, owner.org.ID, owner.agent.ID)
		if d.Allow || d.Redirect != usecase.LoginPath {
			t.Errorf("expected login redirect, got %+v", d)
		}
	})

	t.Run("should send unknown agents to the workforce page", func(t *testing.T) {
		d := env.access.Decide(ctx, owner.viewer, owner.org.ID, "missing")
		if d.Redirect != usecase.WorkforcePath(owner.org.ID) {
			t.Errorf("expected workforce redirect, got %+v", d)
		}
		// an agent of another organization is treated the same way
		d = env.access.Decide(ctx, owner.viewer, owner.org.ID, other.agent.ID)
		if d.Redirect != usecase.WorkforcePath(owner.org.ID) {
			t.Errorf("expected workforce redirect for a foreign agent, got %+v", d)
		}
	})

	t.Run("should send non-owners to the organizations page", func(t *testing.T) {
		d := env.access.Decide(ctx, other.viewer, owner.org.ID, owner.agent.ID)
		if d.Redirect != usecase.OrganizationsPath() || d.Reason != usecase.ReasonNotOwner {
			t.Errorf("expected organizations redirect, got %+v", d)
		}
	})

	t.Run("should send agents without a subscription to billing", func(t *testing.T) {
		d := env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID)
		if d.Redirect != billing || d.Reason != usecase.ReasonNoSubscription {
			t.Errorf("expected billing redirect, got %+v", d)
		}
	})

	t.Run("should allow an active trial and redirect once it expired", func(t *testing.T) {
		env.withTrial(t, owner)
		if d := env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID); !d.Allow {
			t.Fatalf("expected access during trial, got %+v", d)
		}
		env.clock.Advance(31 * 24 * time.Hour)
		d := env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID)
		if d.Allow || d.Redirect != billing || d.Reason != usecase.ReasonExpired {
			t.Errorf("expected billing redirect after expiry, got %+v", d)
		}
	})

	t.Run("should redirect to the failing step on storage errors", func(t *testing.T) {
		env.store.FailNext("agents.FindByID", domain.ErrStorage)
		d := env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID)
		if d.Redirect != usecase.WorkforcePath(owner.org.ID) {
			t.Errorf("expected workforce redirect, got %+v", d)
		}
		env.store.FailNext("organizations.FindByID", domain.ErrStorage)
		d = env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID)
		if d.Redirect != usecase.OrganizationsPath() {
			t.Errorf("expected organizations redirect, got %+v", d)
		}
		env.store.FailNext("subscriptions.FindCurrentByAgent", domain.ErrStorage)
		d = env.access.Decide(ctx, owner.viewer, owner.org.ID, owner.agent.ID)
		if d.Redirect != billing {
			t.Errorf("expected billing redirect, got %+v", d)
		}
	})
}

// Two agents of one organization are gated independently.
func TestAccessUseCase_AgentsAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.newFixture(t, "user-1")
	sales := f.agent
	procurement, err := env.workforce.CreateAgent(ctx, f.viewer, f.org.ID, model.AgentTypeProcurement, "Buyer")
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	// sales trial starts now, procurement trial 20 days later
	env.withTrial(t, f)
	env.clock.Advance(20 * 24 * time.Hour)
	if _, err := env.subs.ActivateTrial(ctx, f.viewer, procurement.ID); err != nil {
		t.Fatalf("ActivateTrial: %v", err)
	}

	env.clock.Advance(15 * 24 * time.Hour) // sales expired, procurement has 15 days left
	if d := env.access.Decide(ctx, f.viewer, f.org.ID, sales.ID); d.Allow {
		t.Errorf("expected sales agent to be gated, got %+v", d)
	}
	if d := env.access.Decide(ctx, f.viewer, f.org.ID, procurement.ID); !d.Allow {
		t.Errorf("expected procurement agent to stay accessible, got %+v", d)
	}

	// paying for sales leaves procurement untouched
	salesSub := env.currentSub(t, sales.ID)
	order := env.newOrder(t, f, salesSub)
	payID := env.gateway.Pay(order.OrderID)
	if _, err := env.payments.Verify(ctx, f.viewer, usecase.VerifyInput{
		OrderID: order.OrderID, PaymentID: payID, Signature: signPayment(order.OrderID, payID),
	}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	procSub := env.currentSub(t, procurement.ID)
	if procSub.Status != model.SubscriptionStatusTrial {
		t.Errorf("expected procurement to remain on trial, got %s", procSub.Status)
	}
	if d := env.access.Decide(ctx, f.viewer, f.org.ID, sales.ID); !d.Allow {
		t.Errorf("expected sales agent to be accessible after payment, got %+v", d)
	}
}
