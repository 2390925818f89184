// File: internal/infra/adapters/payment/razorpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/infra/metrics"

	"golang.org/x/time/rate"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements adapter.PaymentGateway against the Razorpay REST v1 API
// with HTTP basic auth (key id / key secret).
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewRazorpayGateway(cfg config.RazorpayConfig) (*RazorpayGateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay key id/secret empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid razorpay base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

type rzpOrder struct {
	ID        string          `json:"id"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   string          `json:"receipt"`
	Status    string          `json:"status"`
	Attempts  int             `json:"attempts"`
	CreatedAt int64           `json:"created_at"` // unix seconds
	Notes     json.RawMessage `json:"notes"`
}

func (o rzpOrder) toDomain() *adapter.GatewayOrder {
	var created time.Time
	if o.CreatedAt > 0 {
		created = time.Unix(o.CreatedAt, 0).UTC()
	}
	return &adapter.GatewayOrder{
		ID:        o.ID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    o.Status,
		Attempts:  o.Attempts,
		CreatedAt: created,
		Notes:     decodeNotes(o.Notes),
	}
}

// decodeNotes tolerates the empty-array form Razorpay sends when no notes were set.
func decodeNotes(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

type rzpPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	ErrorDescription string `json:"error_description"`
}

type rzpError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder calls POST /orders.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req adapter.OrderRequest) (*adapter.GatewayOrder, error) {
	payload := map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}
	var out rzpOrder
	err := g.do(ctx, http.MethodPost, "/orders", payload, &out)
	metrics.IncGatewayCall("create_order", err)
	if err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// FetchOrder calls GET /orders/{id}.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*adapter.GatewayOrder, error) {
	var out rzpOrder
	err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out)
	metrics.IncGatewayCall("fetch_order", err)
	if err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// FetchOrderPayments calls GET /orders/{id}/payments.
func (g *RazorpayGateway) FetchOrderPayments(ctx context.Context, orderID string) ([]adapter.GatewayPayment, error) {
	var out struct {
		Items []rzpPayment `json:"items"`
	}
	err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil, &out)
	metrics.IncGatewayCall("fetch_payments", err)
	if err != nil {
		return nil, err
	}
	payments := make([]adapter.GatewayPayment, 0, len(out.Items))
	for _, p := range out.Items {
		payments = append(payments, adapter.GatewayPayment{
			ID:               p.ID,
			OrderID:          p.OrderID,
			Status:           p.Status,
			Amount:           p.Amount,
			ErrorDescription: p.ErrorDescription,
		})
	}
	return payments, nil
}

// FindOrderByReceipt calls GET /orders?receipt=.
func (g *RazorpayGateway) FindOrderByReceipt(ctx context.Context, receipt string) (*adapter.GatewayOrder, error) {
	var out struct {
		Items []rzpOrder `json:"items"`
	}
	q := url.Values{"receipt": {receipt}}
	err := g.do(ctx, http.MethodGet, "/orders?"+q.Encode(), nil, &out)
	metrics.IncGatewayCall("find_order", err)
	if err != nil {
		return nil, err
	}
	for _, o := range out.Items {
		if o.Receipt == receipt {
			return o.toDomain(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, payload any, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", domain.ErrGateway, err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrGateway, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrGateway, err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrGateway, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e rzpError
		_ = json.Unmarshal(raw, &e)
		if resp.StatusCode == http.StatusNotFound ||
			strings.Contains(strings.ToLower(e.Error.Description), "does not exist") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: http %d %s: %s", domain.ErrGateway, resp.StatusCode, e.Error.Code, e.Error.Description)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrGateway, err)
	}
	return nil
}
