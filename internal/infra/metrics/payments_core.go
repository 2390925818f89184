package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentTransitionConflicts,
		gatewayCallsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transactions by status (pending/success/failed) and resolving source.",
		},
		[]string{"status", "source"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	paymentTransitionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transition_conflicts_total",
			Help: "Resolution attempts refused because the transaction was already terminal with a different outcome.",
		},
		[]string{"from", "to"},
	)

	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_calls_total",
			Help: "Payment gateway API calls by operation and result.",
		},
		[]string{"op", "result"}, // result: ok|error
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status, source string) {
	paymentsTotal.WithLabelValues(norm(status), norm(source)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncTransitionConflict(from, to string) {
	paymentTransitionConflicts.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncGatewayCall(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayCallsTotal.WithLabelValues(norm(op), result).Inc()
}
