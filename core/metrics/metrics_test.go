package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/factory"
	"github.com/kilianp07/fieldsched/core/model"
)

type recordSink struct {
	runs     []PlanRun
	quality  []RouteQualityEvent
	conflict []ConflictCount
	err      error
}

func (r *recordSink) RecordPlanRun(ev PlanRun) error {
	r.runs = append(r.runs, ev)
	return r.err
}

func (r *recordSink) RecordRouteQuality(evs []RouteQualityEvent) error {
	r.quality = append(r.quality, evs...)
	return nil
}

func (r *recordSink) RecordConflicts(c []ConflictCount) error {
	r.conflict = append(r.conflict, c...)
	return nil
}

type runsOnly struct{ n int }

func (r *runsOnly) RecordPlanRun(PlanRun) error { r.n++; return nil }

func sampleEvent() events.PlanEvent {
	return events.PlanEvent{
		PlanID: "p1",
		Date:   "2026-03-02",
		Action: events.ActionPlan,
		Routes: []events.RouteSummary{
			{TechnicianID: "t1", Jobs: 3, Rating: "green", Score: 90},
			{TechnicianID: "t2", Jobs: 2, Rating: "red", Score: 40},
		},
		Unassignable:  []model.JobID{"j9"},
		Conflicts:     3,
		ConflictKinds: map[model.ConflictKind]int{model.ConflictOverlap: 1, model.ConflictOvertime: 2},
	}
}

func TestRecordSplitsPlanEvent(t *testing.T) {
	s := &recordSink{}
	require.NoError(t, Record(s, sampleEvent(), time.Unix(0, 0)))
	require.Len(t, s.runs, 1)
	assert.Equal(t, 5, s.runs[0].Jobs)
	assert.Equal(t, 1, s.runs[0].Unassignable)
	assert.True(t, s.runs[0].Success)
	assert.Len(t, s.quality, 2)
	require.Len(t, s.conflict, 2)
	assert.Equal(t, model.ConflictOverlap, s.conflict[0].Kind)
	assert.Equal(t, 2, s.conflict[1].Count)
}

func TestMultiSinkForwardsOptionalRecorders(t *testing.T) {
	full := &recordSink{}
	plain := &runsOnly{}
	m := NewMultiSink(full, plain)
	require.NoError(t, Record(m, sampleEvent(), time.Now()))
	assert.Len(t, full.runs, 1)
	assert.Len(t, full.quality, 2)
	assert.Equal(t, 1, plain.n)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	bad := &recordSink{err: errors.New("down")}
	next := &runsOnly{}
	err := NewMultiSink(bad, next).RecordPlanRun(PlanRun{})
	assert.Error(t, err)
	assert.Zero(t, next.n)
}

func TestCollectDrainsUntilClosed(t *testing.T) {
	ch := make(chan events.PlanEvent, 2)
	ch <- sampleEvent()
	ch <- sampleEvent()
	close(ch)
	s := &recordSink{}
	Collect(context.Background(), ch, s, nil)
	assert.Len(t, s.runs, 2)
}

func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	assert.Len(t, m.Sinks, 2)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	assert.Error(t, err)
	assert.Contains(t, SinkTypes(), "nop")
}

func TestConfigDecode(t *testing.T) {
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal([]byte("sinks:\n  - type: nop\n  - type: nop\n"), &fromYAML))
	assert.Len(t, fromYAML.Sinks, 2)

	var fromJSON Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"conf":{"a":1}}]}`), &fromJSON))
	assert.Error(t, fromJSON.Validate())
	fromJSON.SetDefaults()
	assert.Equal(t, "/metrics", fromJSON.PrometheusPath)
}
