package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// Memory keeps everything in maps. Values are copied in and out.
type Memory struct {
	mu     sync.RWMutex
	jobs   map[string][]model.Job
	routes map[string][]model.Route
	avail  map[string]model.Availability
	techs  map[model.TechnicianID]model.Technician
}

func NewMemory() *Memory {
	return &Memory{
		jobs:   map[string][]model.Job{},
		routes: map[string][]model.Route{},
		avail:  map[string]model.Availability{},
		techs:  map[model.TechnicianID]model.Technician{},
	}
}

func (m *Memory) LoadJobs(_ context.Context, day time.Time) ([]model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.CloneJobs(m.jobs[DayKey(day)]), nil
}

func (m *Memory) SaveJobs(_ context.Context, day time.Time, jobs []model.Job) error {
	m.mu.Lock()
	m.jobs[DayKey(day)] = model.CloneJobs(jobs)
	m.mu.Unlock()
	return nil
}

// LoadRoutes returns the day's routes sorted by technician.
func (m *Memory) LoadRoutes(_ context.Context, day time.Time) ([]model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.routes[DayKey(day)]
	out := make([]model.Route, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TechnicianID < out[j].TechnicianID })
	return out, nil
}

func (m *Memory) SaveRoutes(_ context.Context, day time.Time, routes []model.Route) error {
	cp := make([]model.Route, len(routes))
	for i, r := range routes {
		cp[i] = r.Clone()
	}
	m.mu.Lock()
	m.routes[DayKey(day)] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) AvailabilityForDay(_ context.Context, day time.Time) (model.Availability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := model.Availability{}
	for id, st := range m.avail[DayKey(day)] {
		out[id] = st
	}
	return out, nil
}

func (m *Memory) SetAvailability(_ context.Context, day time.Time, a model.Availability) error {
	cp := make(model.Availability, len(a))
	for id, st := range a {
		cp[id] = st
	}
	m.mu.Lock()
	m.avail[DayKey(day)] = cp
	m.mu.Unlock()
	return nil
}

// Technicians returns the roster sorted by ID.
func (m *Memory) Technicians(context.Context) ([]model.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Technician, 0, len(m.techs))
	for _, t := range m.techs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTechnicians upserts roster entries.
func (m *Memory) SaveTechnicians(_ context.Context, techs []model.Technician) error {
	m.mu.Lock()
	for _, t := range techs {
		m.techs[t.ID] = t
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
