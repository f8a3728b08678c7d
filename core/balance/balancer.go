// Package balance spreads a pool of jobs over technicians with a zone-aware
// least-loaded rule. It produces assignments only; ordering and timing are
// left to the sequencer.
package balance

import (
	"errors"
	"sort"
	"strings"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
)

// ErrNoTechnicians is returned when Balance is called with an empty roster.
var ErrNoTechnicians = errors.New("balance: no technicians supplied")

// DefaultZonePenaltyHours is added to a technician's load when the job lies
// outside their zone.
const DefaultZonePenaltyHours = 2.0

// Assignment maps technicians to the jobs given to them, in assignment order.
type Assignment map[model.TechnicianID][]model.Job

// Balancer assigns jobs greedily to the technician with the lowest adjusted
// load.
type Balancer struct {
	ZonePenaltyHours float64
	log              logger.Logger
	initial          map[model.TechnicianID]float64
}

// Option configures a Balancer.
type Option func(*Balancer)

// WithExistingRoutes seeds running loads with hours already on the routes.
func WithExistingRoutes(routes model.RouteMap) Option {
	return func(b *Balancer) {
		for id, r := range routes {
			b.initial[id] += r.WorkHours()
		}
	}
}

// WithZonePenalty overrides the zone mismatch penalty.
func WithZonePenalty(hours float64) Option {
	return func(b *Balancer) { b.ZonePenaltyHours = hours }
}

// New creates a Balancer.
func New(log logger.Logger, opts ...Option) *Balancer {
	b := &Balancer{
		ZonePenaltyHours: DefaultZonePenaltyHours,
		log:              logger.OrNop(log),
		initial:          map[model.TechnicianID]float64{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Balance assigns every job to a technician. Jobs are visited by ascending
// window start; invalid windows go last. Input slices are not modified.
func (b *Balancer) Balance(jobs []model.Job, techs []model.Technician) (Assignment, error) {
	if len(techs) == 0 {
		return nil, ErrNoTechnicians
	}
	ordered := model.CloneJobs(jobs)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, vj := ordered[i].Window.Valid(), ordered[j].Window.Valid()
		if vi != vj {
			return vi
		}
		return ordered[i].Window.Start < ordered[j].Window.Start
	})

	load := make([]float64, len(techs))
	for i, t := range techs {
		load[i] = b.initial[t.ID]
	}
	out := make(Assignment, len(techs))
	for _, job := range ordered {
		best := -1
		bestLoad := 0.0
		for i, t := range techs {
			adjusted := load[i]
			if !strings.EqualFold(job.Zone, t.Zone) {
				adjusted += b.ZonePenaltyHours
			}
			if best < 0 || adjusted < bestLoad {
				best, bestLoad = i, adjusted
			}
		}
		tech := techs[best]
		hours := job.DurationHours
		if hours < 0 {
			hours = 0
		}
		load[best] += hours
		job.AssignTo(tech.ID)
		job.ClearSchedule()
		out[tech.ID] = append(out[tech.ID], job)
		b.log.Debugw("job balanced", map[string]any{
			"job":        string(job.ID),
			"technician": string(tech.ID),
			"load":       load[best],
		})
	}
	return out, nil
}
