package metrics

import (
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// PlanRun is one planner action as seen by observability sinks.
type PlanRun struct {
	PlanID       string
	Date         string
	Action       string
	Routes       int
	Jobs         int
	Unassignable int
	Conflicts    int
	Critical     int
	Fixed        int
	Duration     time.Duration
	Success      bool
	Time         time.Time
}

// MetricsSink records planner runs.
type MetricsSink interface {
	RecordPlanRun(ev PlanRun) error
}

// RouteQualityEvent is the rating of one route after a run.
type RouteQualityEvent struct {
	PlanID        string
	Date          string
	TechnicianID  model.TechnicianID
	Rating        string
	Score         int
	WorkHours     float64
	TravelMinutes int
	Strategy      string
	Time          time.Time
}

// RouteQualityRecorder is implemented by sinks that track route ratings.
type RouteQualityRecorder interface {
	RecordRouteQuality(evs []RouteQualityEvent) error
}

// ConflictCount is the number of conflicts of one kind left by a run.
type ConflictCount struct {
	PlanID string
	Date   string
	Kind   model.ConflictKind
	Count  int
	Time   time.Time
}

// ConflictRecorder is implemented by sinks that track conflicts.
type ConflictRecorder interface {
	RecordConflicts(counts []ConflictCount) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordPlanRun(PlanRun) error                  { return nil }
func (NopSink) RecordRouteQuality([]RouteQualityEvent) error { return nil }
func (NopSink) RecordConflicts([]ConflictCount) error        { return nil }

// MultiSink fans records out to several sinks. Optional recorders are only
// called on sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanRun forwards to all sinks, returning the first error.
func (m *MultiSink) RecordPlanRun(ev PlanRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanRun(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordRouteQuality(evs []RouteQualityEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RouteQualityRecorder); ok {
			if err := rec.RecordRouteQuality(evs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiSink) RecordConflicts(counts []ConflictCount) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ConflictRecorder); ok {
			if err := rec.RecordConflicts(counts); err != nil {
				return err
			}
		}
	}
	return nil
}
