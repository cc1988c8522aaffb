package analysis

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ChartBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_chart_build_seconds",
		Help:    "Time spent turning a group payload into a chart view.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	ChartsBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_charts_built_total",
		Help: "Chart views built, by chart type.",
	}, []string{"type"})

	StaleDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_stale_results_total",
		Help: "Fetch results discarded because a newer request superseded them.",
	})

	registerOnce sync.Once
)

// InitMetrics registers the chart pipeline collectors once.
func InitMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(ChartBuildSeconds)
		reg.MustRegister(ChartsBuilt)
		reg.MustRegister(StaleDiscarded)
	})
}
