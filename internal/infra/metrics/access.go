package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(accessDecisionsTotal, trialsActivatedTotal) }

var (
	accessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Agent console access decisions by outcome.",
		},
		[]string{"outcome"}, // allow|login|workforce|organizations|billing
	)

	trialsActivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_trials_activated_total",
			Help: "Total number of trials activated.",
		},
	)
)

func IncAccessDecision(outcome string) {
	accessDecisionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncTrialActivated() {
	trialsActivatedTotal.Inc()
}
