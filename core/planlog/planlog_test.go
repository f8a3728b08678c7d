package planlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/model"
)

func sample(id, date string, ts time.Time, techs ...string) PlanRecord {
	r := PlanRecord{PlanID: id, Timestamp: ts, Date: date, Action: events.ActionPlan}
	for _, t := range techs {
		r.Routes = append(r.Routes, events.RouteSummary{TechnicianID: model.TechnicianID(t), Jobs: 2})
	}
	return r
}

func exerciseStore(t *testing.T, s LogStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, sample("p1", "2026-03-02", base, "t1", "t2")))
	require.NoError(t, s.Append(ctx, sample("p2", "2026-03-03", base.Add(time.Hour), "t2")))
	require.NoError(t, s.Append(ctx, sample("p3", "2026-03-03", base.Add(2*time.Hour), "t3")))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p1", all[0].PlanID)

	byDate, err := s.Query(ctx, Query{Date: "2026-03-03"})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byTech, err := s.Query(ctx, Query{TechnicianID: "t2"})
	require.NoError(t, err)
	require.Len(t, byTech, 2)
	assert.Equal(t, "p2", byTech[1].PlanID)

	window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "p2", window[0].PlanID)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "plans.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStoreRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := sample("big", "2026-03-02", time.Now(), "t1")
	rec.Error = strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Append(context.Background(), rec))
	}
	files, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "plans*"))
	if len(files) < 2 {
		t.Fatalf("expected rotated backups, got %v", files)
	}
	out, err := s.Query(context.Background(), Query{Date: "2026-03-02"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestFromEvent(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	r := FromEvent(events.PlanEvent{
		PlanID:   "p",
		Date:     "2026-03-02",
		Action:   events.ActionFill,
		Duration: 1500 * time.Millisecond,
		Err:      errors.New("store down"),
	}, ts)
	assert.Equal(t, int64(1500), r.DurationMS)
	assert.Equal(t, "store down", r.Error)
	assert.Equal(t, ts, r.Timestamp)
}

func TestConfigOpen(t *testing.T) {
	var c Config
	c.SetDefaults()
	require.NoError(t, c.Validate())
	s, err := Open(c)
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	c.Backend = "sqlite"
	assert.Error(t, c.Validate())
	c.Path = filepath.Join(t.TempDir(), "p.db")
	require.NoError(t, c.Validate())
	s, err = Open(c)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	c.Backend = "kafka"
	assert.Error(t, c.Validate())
}
