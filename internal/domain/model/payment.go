package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // order reserved/created; awaiting resolution
	PaymentStatusSuccess PaymentStatus = "success" // captured at gateway and verified
	PaymentStatusFailed  PaymentStatus = "failed"  // signature failure, gateway failure or abandonment
)

// IsTerminal reports whether the status can no longer change.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// PaymentTransaction records one attempt to pay for one subscription.
type PaymentTransaction struct {
	ID               string // UUID
	AgentID          string
	SubscriptionID   string
	Receipt          string  // unique, reserved before the gateway is called
	GatewayOrderID   *string // nil until the gateway accepted the order
	GatewayPaymentID *string // set on resolution when the gateway reported a payment
	GatewaySignature *string // client-redirect signature, when verified that way
	Amount           int64   // rupees
	Currency         string
	Status           PaymentStatus
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderID returns the gateway order id or "" when it is not attached yet.
func (p *PaymentTransaction) OrderID() string {
	if p.GatewayOrderID == nil {
		return ""
	}
	return *p.GatewayOrderID
}

// PaymentSource names the path that resolved a transaction.
type PaymentSource string

const (
	SourceVerifier PaymentSource = "verifier"
	SourceWebhook  PaymentSource = "webhook"
	SourceSweeper  PaymentSource = "sweeper"
)

// PaymentOutcome is the terminal result a resolver wants to apply to a pending transaction.
type PaymentOutcome struct {
	Status    PaymentStatus
	PaymentID string // optional
	Signature string // optional
	Reason    string // failure reason, failed outcomes only
	Source    PaymentSource
}

// Failure reasons written by this service.
const (
	ReasonSignatureFailed   = "Signature verification failed"
	ReasonNotCompleted      = "Payment not completed within time limit"
	ReasonNotAttempted      = "Payment not attempted"
	ReasonOrderNeverCreated = "Order was never created at gateway"
	ReasonUnknownError      = "Unknown error"
)
