package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo, buildCheckFailures)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	buildCheckFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_check_failures",
			Help:      "Number of failed dependency checks in the last startup preflight.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func SetBuildCheckFailures(n int) {
	buildCheckFailures.Set(float64(n))
}
