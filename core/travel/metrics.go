package travel

import "github.com/prometheus/client_golang/prometheus"

var (
	lookupsTotal    *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	fallbacksTotal  prometheus.Counter
)

func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Counter) {
	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_lookups_total",
			Help: "Travel lookups by kind and cache outcome",
		},
		[]string{"kind", "outcome"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travel_provider_latency_seconds",
			Help:    "Latency of calls to the travel provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	fb := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travel_fallback_estimates_total",
			Help: "Drives replaced by the fallback duration after a provider failure",
		},
	)
	return lookups, lat, fb
}

func init() {
	lookupsTotal, providerLatency, fallbacksTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers travel metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(lookupsTotal, providerLatency, fallbacksTotal)
}

// ResetMetrics recreates the collectors and registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	lookupsTotal, providerLatency, fallbacksTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
