package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(dbPoolConns, dbPoolEmptyAcquires)
}

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state (total|idle|in_use|max).",
		},
		[]string{"state"},
	)

	// pgx reports this as a running total, so it is mirrored with a gauge.
	dbPoolEmptyAcquires = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_empty_acquires",
			Help: "Acquires that had to wait for a connection since the pool opened.",
		},
	)
)

// PoolStat is the subset of pool statistics the billing service exports.
type PoolStat struct {
	Total, Idle, InUse, Max int32
	EmptyAcquires           int64
}

func SetDBPoolStats(s PoolStat) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
