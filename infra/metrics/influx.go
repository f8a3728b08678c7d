package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fieldsched/core/metrics"
	"github.com/kilianp07/fieldsched/infra/logger"
)

// InfluxSink writes planner runs as InfluxDB points.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink targets url. A trailing /api/v2/write is tolerated.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		timeout:  5 * time.Second,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback returns a NopSink when the instance fails its
// health check.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(points ...*write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

func (s *InfluxSink) RecordPlanRun(ev coremetrics.PlanRun) error {
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("action", ev.Action).
		AddTag("date", ev.Date).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("plan_id", ev.PlanID).
		AddField("routes", ev.Routes).
		AddField("jobs", ev.Jobs).
		AddField("unassignable", ev.Unassignable).
		AddField("conflicts", ev.Conflicts).
		AddField("critical", ev.Critical).
		AddField("fixed", ev.Fixed).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) RecordRouteQuality(evs []coremetrics.RouteQualityEvent) error {
	points := make([]*write.Point, 0, len(evs))
	for _, e := range evs {
		points = append(points, write.NewPointWithMeasurement("route_quality").
			AddTag("technician_id", string(e.TechnicianID)).
			AddTag("date", e.Date).
			AddTag("rating", e.Rating).
			AddTag("strategy", e.Strategy).
			AddField("plan_id", e.PlanID).
			AddField("score", e.Score).
			AddField("work_hours", round3(e.WorkHours)).
			AddField("travel_minutes", e.TravelMinutes).
			SetTime(e.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.write(points...)
}

func (s *InfluxSink) RecordConflicts(counts []coremetrics.ConflictCount) error {
	points := make([]*write.Point, 0, len(counts))
	for _, c := range counts {
		points = append(points, write.NewPointWithMeasurement("plan_conflicts").
			AddTag("kind", string(c.Kind)).
			AddTag("date", c.Date).
			AddField("plan_id", c.PlanID).
			AddField("count", c.Count).
			SetTime(c.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.write(points...)
}

// Close flushes and releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
