//go:build !integration

package payment

import (
	"context"
	"testing"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/ports/adapter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("should drive an order through payment", func(t *testing.T) {
		g := NewSandboxGateway()
		o, err := g.CreateOrder(ctx, adapter.OrderRequest{Amount: 80000, Currency: "INR", Receipt: "r1"})
		require.NoError(t, err)

		g.Fail(o.ID, "card declined")
		payID := g.Pay(o.ID)

		got, err := g.FetchOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, adapter.OrderStatusPaid, got.Status)
		assert.Equal(t, 2, got.Attempts)

		ps, err := g.FetchOrderPayments(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, payID, ps[1].ID)
	})

	t.Run("should keep the order when only the response is lost", func(t *testing.T) {
		g := NewSandboxGateway()
		g.FailNextCreate(1, true)
		_, err := g.CreateOrder(ctx, adapter.OrderRequest{Receipt: "r2"})
		assert.ErrorIs(t, err, domain.ErrGateway)

		o, err := g.FindOrderByReceipt(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, "r2", o.Receipt)
	})

	t.Run("should register nothing on a refused create", func(t *testing.T) {
		g := NewSandboxGateway()
		g.FailNextCreate(1, false)
		_, err := g.CreateOrder(ctx, adapter.OrderRequest{Receipt: "r3"})
		assert.ErrorIs(t, err, domain.ErrGateway)
		assert.Zero(t, g.OrderCount())

		_, err = g.FetchOrder(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
