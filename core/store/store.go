// Package store defines day-scoped persistence for jobs, routes, the roster
// and availability. The scheduling core never touches storage directly; the
// planner loads a snapshot, computes a new one and saves it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/fieldsched/core/factory"
	"github.com/kilianp07/fieldsched/core/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// DayLayout is the canonical day key format.
const DayLayout = "2006-01-02"

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string { return t.Format(DayLayout) }

// ParseDay parses a YYYY-MM-DD day in UTC.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return d, nil
}

type JobStore interface {
	// LoadJobs returns the day's jobs; an unknown day yields no jobs.
	LoadJobs(ctx context.Context, day time.Time) ([]model.Job, error)
	// SaveJobs replaces the day's jobs.
	SaveJobs(ctx context.Context, day time.Time, jobs []model.Job) error
}

type RouteStore interface {
	LoadRoutes(ctx context.Context, day time.Time) ([]model.Route, error)
	// SaveRoutes replaces every route of the day.
	SaveRoutes(ctx context.Context, day time.Time, routes []model.Route) error
}

type AvailabilityStore interface {
	AvailabilityForDay(ctx context.Context, day time.Time) (model.Availability, error)
	SetAvailability(ctx context.Context, day time.Time, a model.Availability) error
}

type RosterStore interface {
	Technicians(ctx context.Context) ([]model.Technician, error)
	SaveTechnicians(ctx context.Context, techs []model.Technician) error
}

// Store is everything the planner persists.
type Store interface {
	JobStore
	RouteStore
	AvailabilityStore
	RosterStore
	Close() error
}

// Config selects the backend.
type Config struct {
	Backend string `json:"backend" validate:"omitempty,oneof=memory sqlite postgres"`
	// Path is the sqlite database file.
	Path string `json:"path"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn"`
}

func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case "", "memory":
	case "sqlite":
		if c.Path == "" {
			return errors.New("store: sqlite backend needs path")
		}
	case "postgres":
		if c.DSN == "" {
			return errors.New("store: postgres backend needs dsn")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Backend)
	}
	return nil
}

var registry = factory.NewRegistry[Store]()

func init() {
	_ = Register("memory", func(map[string]any) (Store, error) { return NewMemory(), nil })
}

// Register adds a backend constructor. Backends register themselves from
// their package init.
func Register(name string, f factory.Factory[Store]) error {
	return registry.Register(name, f)
}

// Open builds the configured backend.
func Open(c Config) (Store, error) {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	return registry.Create(factory.ModuleConfig{
		Type: c.Backend,
		Conf: map[string]any{"path": c.Path, "dsn": c.DSN},
	})
}
