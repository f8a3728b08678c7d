package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/factory"
	coremetrics "github.com/kilianp07/fieldsched/core/metrics"
	"github.com/kilianp07/fieldsched/core/model"
)

func planEvent() events.PlanEvent {
	return events.PlanEvent{
		PlanID:   "p1",
		Date:     "2026-03-02",
		Action:   events.ActionPlan,
		Duration: 250 * time.Millisecond,
		Routes: []events.RouteSummary{
			{TechnicianID: "t1", Jobs: 3, Rating: "green", Score: 90, Strategy: "greedy", WorkHours: 6, TravelMinutes: 40},
			{TechnicianID: "t2", Jobs: 1, Rating: "red", Score: 50, Strategy: "deadline-first", WorkHours: 2, TravelMinutes: 70},
		},
		Unassignable:  []model.JobID{"j7", "j8"},
		ConflictKinds: map[model.ConflictKind]int{model.ConflictOvertime: 2},
	}
}

func TestPromSinkRecordsPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, coremetrics.Record(sink, planEvent(), time.Now()))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs.WithLabelValues(events.ActionPlan, "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.unassignable.WithLabelValues("2026-03-02")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.ratings.WithLabelValues("red")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.conflicts.WithLabelValues("overtime")))
	assert.Equal(t, 2, testutil.CollectAndCount(sink.routeScore))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordPlanRun(coremetrics.PlanRun{Action: "fill", Success: true}))
	require.NoError(t, b.RecordPlanRun(coremetrics.PlanRun{Action: "fill", Success: true}))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.runs.WithLabelValues("fill", "true")))
}

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) handler(health int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(health)
			if health == http.StatusOK {
				_, _ = io.WriteString(w, `{"name":"influxdb","status":"pass","message":"ready"}`)
			}
			return
		}
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, string(data))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
}

func (c *capture) all() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.bodies, "\n")
}

func TestInfluxSinkWritesPoints(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(c.handler(http.StatusOK))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	require.NoError(t, coremetrics.Record(sink, planEvent(), time.Unix(1700000000, 0)))

	body := c.all()
	assert.Contains(t, body, "plan_run,action=plan,date=2026-03-02,success=true")
	assert.Contains(t, body, "unassignable=2i")
	assert.Contains(t, body, "route_quality,technician_id=t1,date=2026-03-02,rating=green,strategy=greedy")
	assert.Contains(t, body, "plan_conflicts,kind=overtime,date=2026-03-02")
	assert.Contains(t, body, "count=2i")
}

func TestInfluxSinkFallbackOnUnhealthy(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(c.handler(http.StatusServiceUnavailable))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "tok", "org", "bucket")
	_, isNop := sink.(coremetrics.NopSink)
	assert.True(t, isNop, "expected NopSink, got %T", sink)

	healthy := httptest.NewServer((&capture{}).handler(http.StatusOK))
	defer healthy.Close()
	sink = NewInfluxSinkWithFallback(healthy.URL, "tok", "org", "bucket")
	assert.IsType(t, &InfluxSink{}, sink)
}

func TestFactoryBuildsRegisteredSinks(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*coremetrics.MultiSink)
	require.True(t, ok)
	assert.IsType(t, &PromSink{}, m.Sinks[0])
	assert.Subset(t, coremetrics.SinkTypes(), []string{"influx", "nop", "prometheus"})
}
