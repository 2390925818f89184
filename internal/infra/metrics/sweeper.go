package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sweepRunsTotal,
		sweepOrdersTotal,
		sweepDuration,
	)
}

var (
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Stale-order sweeper runs by result (ok|empty|locked|error).",
		},
		[]string{"result"},
	)

	sweepOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_orders_total",
			Help: "Orders examined by the sweeper, by per-order result.",
		},
		[]string{"result"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweeper_run_duration_seconds",
			Help:    "Duration of stale-order sweeper runs in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

func IncSweepRun(result string) {
	sweepRunsTotal.WithLabelValues(norm(result)).Inc()
}

func IncSweepOrder(result string) {
	sweepOrdersTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveSweepDuration(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}
