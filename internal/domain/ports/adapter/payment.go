package adapter

import (
	"context"
	"time"
)

// Gateway order statuses (Razorpay contract).
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

// Gateway payment statuses used by reconciliation.
const (
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
)

// OrderRequest describes an order to create at the gateway. Amount is in the
// smallest currency unit (paise).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the provider's view of an order.
type GatewayOrder struct {
	ID        string
	Amount    int64
	Currency  string
	Receipt   string
	Status    string
	Attempts  int
	CreatedAt time.Time
	Notes     map[string]string
}

// GatewayPayment is one payment attempt against an order.
type GatewayPayment struct {
	ID               string
	OrderID          string
	Status           string
	Amount           int64
	ErrorDescription string
}

// PaymentGateway is the hex port for payment providers.
// Failures are reported wrapped in domain.ErrGateway; a missing order is domain.ErrNotFound.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]GatewayPayment, error)
	// FindOrderByReceipt locates an order we created but never recorded locally.
	FindOrderByReceipt(ctx context.Context, receipt string) (*GatewayOrder, error)
}

// SignatureVerifier checks gateway-issued HMAC signatures.
type SignatureVerifier interface {
	// VerifyPayment checks the client-redirect signature over "order_id|payment_id".
	VerifyPayment(orderID, paymentID, signature string) bool
	// VerifyWebhook checks the webhook signature over the raw request body.
	VerifyWebhook(body []byte, signature string) bool
}
