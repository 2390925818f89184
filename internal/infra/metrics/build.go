package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "workforce_billing_build_info",
		Help: "Always 1; labels carry the release version, commit and Go runtime.",
	},
	[]string{"version", "commit", "goversion"},
)

// SetBuildInfo publishes the release the process was built from.
func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
