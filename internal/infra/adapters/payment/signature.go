package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"workforce-billing/internal/domain/ports/adapter"
)

// SignPayment returns the checkout signature Razorpay hands to the client:
// hex(HMAC-SHA256(key_secret, order_id + "|" + payment_id)).
func SignPayment(secret, orderID, paymentID string) string {
	return sign(secret, []byte(orderID+"|"+paymentID))
}

// VerifyPaymentSignature checks a client-redirect signature in constant time.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return equalHex(SignPayment(secret, orderID, paymentID), signature)
}

// SignWebhook returns hex(HMAC-SHA256(webhook_secret, body)).
func SignWebhook(secret string, body []byte) string {
	return sign(secret, body)
}

// VerifyWebhookSignature checks the x-razorpay-signature header against the raw body.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return equalHex(SignWebhook(secret, body), signature)
}

func sign(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// equalHex compares byte for byte. Case or whitespace variants of a valid
// signature are rejected.
func equalHex(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}

var _ adapter.SignatureVerifier = Signer{}

// Signer verifies signatures with the configured secrets. WebhookSecret falls
// back to KeySecret when empty.
type Signer struct {
	KeySecret     string
	WebhookSecret string
}

func NewSigner(keySecret, webhookSecret string) Signer {
	if webhookSecret == "" {
		webhookSecret = keySecret
	}
	return Signer{KeySecret: keySecret, WebhookSecret: webhookSecret}
}

func (s Signer) VerifyPayment(orderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(s.KeySecret, orderID, paymentID, signature)
}

func (s Signer) VerifyWebhook(body []byte, signature string) bool {
	return VerifyWebhookSignature(s.WebhookSecret, body, signature)
}
