package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fieldsched/core/metrics"
)

// PromSink exposes planner runs as Prometheus series.
type PromSink struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	unassignable *prometheus.GaugeVec
	routeScore   *prometheus.HistogramVec
	ratings      *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
}

// NewPromSink registers on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers on reg, reusing collectors that are
// already registered. A nil reg means the default registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsched_sink_plan_runs_total",
			Help: "Planner runs by action and outcome",
		}, []string{"action", "success"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldsched_sink_plan_duration_seconds",
			Help:    "Wall time of planner runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		unassignable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fieldsched_sink_unassignable_jobs",
			Help: "Jobs left unassignable by the latest run for a day",
		}, []string{"date"}),
		routeScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldsched_sink_route_score",
			Help:    "Route quality scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"strategy"}),
		ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsched_sink_route_ratings_total",
			Help: "Route ratings by level",
		}, []string{"rating"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsched_sink_conflicts_total",
			Help: "Conflicts left after auto-fix by kind",
		}, []string{"kind"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.unassignable, err = register(reg, s.unassignable); err != nil {
		return nil, err
	}
	if s.routeScore, err = register(reg, s.routeScore); err != nil {
		return nil, err
	}
	if s.ratings, err = register(reg, s.ratings); err != nil {
		return nil, err
	}
	if s.conflicts, err = register(reg, s.conflicts); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordPlanRun(ev coremetrics.PlanRun) error {
	s.runs.WithLabelValues(ev.Action, strconv.FormatBool(ev.Success)).Inc()
	s.duration.WithLabelValues(ev.Action).Observe(ev.Duration.Seconds())
	if ev.Date != "" {
		s.unassignable.WithLabelValues(ev.Date).Set(float64(ev.Unassignable))
	}
	return nil
}

func (s *PromSink) RecordRouteQuality(evs []coremetrics.RouteQualityEvent) error {
	for _, e := range evs {
		s.routeScore.WithLabelValues(e.Strategy).Observe(float64(e.Score))
		s.ratings.WithLabelValues(e.Rating).Inc()
	}
	return nil
}

func (s *PromSink) RecordConflicts(counts []coremetrics.ConflictCount) error {
	for _, c := range counts {
		s.conflicts.WithLabelValues(string(c.Kind)).Add(float64(c.Count))
	}
	return nil
}
