package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
)

// FromPlanEvent splits a plan event into the records sinks understand.
func FromPlanEvent(e events.PlanEvent, now time.Time) (PlanRun, []RouteQualityEvent, []ConflictCount) {
	run := PlanRun{
		PlanID:       e.PlanID,
		Date:         e.Date,
		Action:       e.Action,
		Routes:       len(e.Routes),
		Unassignable: len(e.Unassignable),
		Conflicts:    e.Conflicts,
		Critical:     e.Critical,
		Fixed:        e.Fixed,
		Duration:     e.Duration,
		Success:      e.Err == nil,
		Time:         now,
	}
	quality := make([]RouteQualityEvent, 0, len(e.Routes))
	for _, r := range e.Routes {
		run.Jobs += r.Jobs
		quality = append(quality, RouteQualityEvent{
			PlanID:        e.PlanID,
			Date:          e.Date,
			TechnicianID:  r.TechnicianID,
			Rating:        r.Rating,
			Score:         r.Score,
			WorkHours:     r.WorkHours,
			TravelMinutes: r.TravelMinutes,
			Strategy:      r.Strategy,
			Time:          now,
		})
	}
	kinds := make([]model.ConflictKind, 0, len(e.ConflictKinds))
	for k := range e.ConflictKinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	counts := make([]ConflictCount, 0, len(kinds))
	for _, k := range kinds {
		counts = append(counts, ConflictCount{PlanID: e.PlanID, Date: e.Date, Kind: k, Count: e.ConflictKinds[k], Time: now})
	}
	return run, quality, counts
}

// Record writes one plan event to sink and whichever optional recorders it
// implements.
func Record(sink MetricsSink, e events.PlanEvent, now time.Time) error {
	run, quality, counts := FromPlanEvent(e, now)
	if err := sink.RecordPlanRun(run); err != nil {
		return err
	}
	if rec, ok := sink.(RouteQualityRecorder); ok && len(quality) > 0 {
		if err := rec.RecordRouteQuality(quality); err != nil {
			return err
		}
	}
	if rec, ok := sink.(ConflictRecorder); ok && len(counts) > 0 {
		return rec.RecordConflicts(counts)
	}
	return nil
}

// Collect records every event received on sub until it closes or ctx ends.
// Sink errors are logged and do not stop collection.
func Collect(ctx context.Context, sub <-chan events.PlanEvent, sink MetricsSink, log logger.Logger) {
	log = logger.OrNop(log)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := Record(sink, e, time.Now()); err != nil {
				log.Warnf("metrics: record plan %s: %v", e.PlanID, err)
			}
		}
	}
}
