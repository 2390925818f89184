//go:build !integration

package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSignature(t *testing.T) {
	sig := SignPayment("secret", "order_1", "pay_1")

	assert.True(t, VerifyPaymentSignature("secret", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_1", strings.ToUpper(sig)), "signature must match exactly")
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_1", " "+sig+"\n"), "padding is not trimmed")
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_2", sig))
	assert.False(t, VerifyPaymentSignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_1", "pay_1", ""))
	assert.False(t, VerifyPaymentSignature("", "order_1", "pay_1", sig))
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	s := NewSigner("key-secret", "")

	assert.Equal(t, "key-secret", s.WebhookSecret, "webhook secret falls back to key secret")
	assert.True(t, s.VerifyWebhook(body, SignWebhook("key-secret", body)))
	assert.False(t, s.VerifyWebhook(append(body, ' '), SignWebhook("key-secret", body)), "body must be byte-exact")
	assert.False(t, s.VerifyWebhook(body, strings.ToUpper(SignWebhook("key-secret", body))), "header must match exactly")

	s = NewSigner("key-secret", "hook-secret")
	assert.False(t, s.VerifyWebhook(body, SignWebhook("key-secret", body)))
	assert.True(t, s.VerifyWebhook(body, SignWebhook("hook-secret", body)))
	assert.True(t, s.VerifyPayment("o", "p", SignPayment("key-secret", "o", "p")))
}
