// Package planlog keeps an append-only history of planning runs.
package planlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/model"
)

// PlanRecord captures one planner action and its outcome.
type PlanRecord struct {
	PlanID       string                `json:"plan_id"`
	Timestamp    time.Time             `json:"timestamp"`
	Date         string                `json:"date"`
	Action       string                `json:"action"`
	Routes       []events.RouteSummary `json:"routes"`
	Unassignable []model.JobID         `json:"unassignable,omitempty"`
	Conflicts    int                   `json:"conflicts"`
	Critical     int                   `json:"critical"`
	Fixed        int                   `json:"fixed"`
	DurationMS   int64                 `json:"duration_ms"`
	Error        string                `json:"error,omitempty"`
}

// FromEvent converts a plan event into a record stamped at ts.
func FromEvent(e events.PlanEvent, ts time.Time) PlanRecord {
	r := PlanRecord{
		PlanID:       e.PlanID,
		Timestamp:    ts,
		Date:         e.Date,
		Action:       e.Action,
		Routes:       e.Routes,
		Unassignable: e.Unassignable,
		Conflicts:    e.Conflicts,
		Critical:     e.Critical,
		Fixed:        e.Fixed,
		DurationMS:   e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start        time.Time
	End          time.Time
	Date         string
	TechnicianID model.TechnicianID
}

// Match reports whether r passes every filter in q.
func (q Query) Match(r PlanRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Date != "" && r.Date != q.Date {
		return false
	}
	if q.TechnicianID != "" {
		for _, s := range r.Routes {
			if s.TechnicianID == q.TechnicianID {
				return true
			}
		}
		return false
	}
	return true
}

// LogStore persists PlanRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec PlanRecord) error
	Query(ctx context.Context, q Query) ([]PlanRecord, error)
	Close() error
}

// Config selects and tunes the backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend    string `json:"backend" validate:"omitempty,oneof=jsonl sqlite none"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset rotation values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate checks that file backends have a path.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "none":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("plan_log: path required for %s backend", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("plan_log: unknown backend %q", c.Backend)
	}
}

// Open returns the configured store.
func Open(c Config) (LogStore, error) {
	switch c.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	}
	return nil, fmt.Errorf("plan_log: unknown backend %q", c.Backend)
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, PlanRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]PlanRecord, error) { return nil, nil }
func (NopStore) Close() error                                       { return nil }
