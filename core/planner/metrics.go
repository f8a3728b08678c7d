package planner

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	unassignedJobs *prometheus.GaugeVec
	conflictsTotal *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.GaugeVec, *prometheus.CounterVec) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_runs_total",
			Help: "Planner actions by outcome",
		},
		[]string{"action", "outcome"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_run_duration_seconds",
			Help:    "Wall time of planner actions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	unassigned := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_unassigned_jobs",
			Help: "Jobs left without a technician by the last action",
		},
		[]string{"action"},
	)
	conflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_conflicts_total",
			Help: "Conflicts handled by kind and outcome (fixed or open)",
		},
		[]string{"kind", "outcome"},
	)
	return runs, dur, unassigned, conflicts
}

func init() {
	runsTotal, runDuration, unassignedJobs, conflictsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers planner metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runsTotal, runDuration, unassignedJobs, conflictsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runsTotal, runDuration, unassignedJobs, conflictsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
