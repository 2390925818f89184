//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/ports/adapter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *RazorpayGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewRazorpayGateway(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		BaseURL:   srv.URL,
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	return g
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 80000, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "order_abc", body["receipt"])

		_, _ = w.Write([]byte(`{"id":"order_1","entity":"order","amount":80000,"currency":"INR",
			"receipt":"order_abc","status":"created","attempts":0,"created_at":1767225600,
			"notes":{"agent_id":"a1"}}`))
	})

	o, err := g.CreateOrder(context.Background(), adapter.OrderRequest{
		Amount: 80000, Currency: "INR", Receipt: "order_abc",
		Notes: map[string]string{"agent_id": "a1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", o.ID)
	assert.Equal(t, adapter.OrderStatusCreated, o.Status)
	assert.Equal(t, "a1", o.Notes["agent_id"])
	assert.Equal(t, int64(1767225600), o.CreatedAt.Unix())
}

func TestRazorpayGateway_FetchOrder_EmptyNotesArray(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/order_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"order_1","status":"attempted","attempts":2,"notes":[]}`))
	})

	o, err := g.FetchOrder(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, adapter.OrderStatusAttempted, o.Status)
	assert.Equal(t, 2, o.Attempts)
	assert.Nil(t, o.Notes)
}

func TestRazorpayGateway_FetchOrderPayments(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/order_1/payments", r.URL.Path)
		_, _ = w.Write([]byte(`{"entity":"collection","count":2,"items":[
			{"id":"pay_1","order_id":"order_1","status":"failed","amount":80000,"error_description":"card declined"},
			{"id":"pay_2","order_id":"order_1","status":"captured","amount":80000}]}`))
	})

	ps, err := g.FetchOrderPayments(context.Background(), "order_1")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "card declined", ps[0].ErrorDescription)
	assert.Equal(t, adapter.PaymentStatusCaptured, ps[1].Status)
}

func TestRazorpayGateway_FindOrderByReceipt(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "order_r1", r.URL.Query().Get("receipt"))
		if r.URL.Query().Get("receipt") == "order_r1" {
			_, _ = w.Write([]byte(`{"items":[{"id":"order_9","receipt":"order_r1","status":"created"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	o, err := g.FindOrderByReceipt(context.Background(), "order_r1")
	require.NoError(t, err)
	assert.Equal(t, "order_9", o.ID)
}

func TestRazorpayGateway_Errors(t *testing.T) {
	t.Run("should map missing ids to not found", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
		})
		_, err := g.FetchOrder(context.Background(), "order_x")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("should wrap server errors as gateway errors", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"SERVER_ERROR","description":"boom"}}`))
		})
		_, err := g.CreateOrder(context.Background(), adapter.OrderRequest{Amount: 1, Currency: "INR", Receipt: "r"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrGateway))
		assert.Contains(t, err.Error(), "SERVER_ERROR")
	})

	t.Run("should reject missing credentials", func(t *testing.T) {
		_, err := NewRazorpayGateway(config.RazorpayConfig{BaseURL: "http://x"})
		assert.Error(t, err)
	})
}
