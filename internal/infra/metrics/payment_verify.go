package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentVerifyRequests,
		WebhookEventsTotal,
	)
}

var (
	// Count of client-redirect verify calls grouped by result.
	// result: ok|signature_mismatch|not_found|unauthorized|error
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of /api/razorpay/verify-payment calls by result.",
		},
		[]string{"result"},
	)

	// Webhook deliveries by event type and outcome.
	// outcome: applied|noop|ignored|duplicate|not_found|bad_signature|error
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries by event and outcome.",
		},
		[]string{"event", "outcome"},
	)
)

func IncVerify(result string) {
	PaymentVerifyRequests.WithLabelValues(norm(result)).Inc()
}

func IncWebhook(event, outcome string) {
	if event == "" {
		event = "unknown"
	}
	WebhookEventsTotal.WithLabelValues(norm(event), norm(outcome)).Inc()
}
