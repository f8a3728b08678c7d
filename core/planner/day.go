package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/store"
)

// day is the working snapshot of one date.
type day struct {
	date   time.Time
	key    string
	techs  []model.Technician
	avail  model.Availability
	jobs   []model.Job
	routes model.RouteMap
}

func (p *Planner) load(ctx context.Context, date time.Time) (*day, error) {
	techs, err := p.store.Technicians(ctx)
	if err != nil {
		return nil, fmt.Errorf("load technicians: %w", err)
	}
	avail, err := p.store.AvailabilityForDay(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	jobs, err := p.store.LoadJobs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	routes, err := p.store.LoadRoutes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	return &day{
		date:   date,
		key:    store.DayKey(date),
		techs:  techs,
		avail:  avail,
		jobs:   jobs,
		routes: model.RoutesFromSlice(routes),
	}, nil
}

// available returns the roster members who can take work, in roster order.
func (d *day) available() []model.Technician {
	out := make([]model.Technician, 0, len(d.techs))
	for _, t := range d.techs {
		if !d.avail.Status(t.ID).Unavailable() {
			out = append(out, t)
		}
	}
	return out
}

func (d *day) index(id model.JobID) int {
	for i, j := range d.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

// replace overwrites the listed copy of j.
func (d *day) replace(j model.Job) {
	if i := d.index(j.ID); i >= 0 {
		d.jobs[i] = j.Clone()
	}
}

func (d *day) unassigned() []model.JobID {
	var out []model.JobID
	for _, j := range d.jobs {
		if j.AssignedTech == nil {
			out = append(out, j.ID)
		}
	}
	return out
}

// attachHelpers rebuilds the helper entries: every primary job with an
// assigned second technician from the roster gets a copy in that
// technician's route, placed by start time.
func (d *day) attachHelpers() {
	roster := make(map[model.TechnicianID]bool, len(d.techs))
	for _, t := range d.techs {
		roster[t.ID] = true
	}
	for id, r := range d.routes {
		kept := r.PrimaryJobs()
		if len(kept) == len(r.Jobs) {
			continue
		}
		if len(kept) == 0 {
			delete(d.routes, id)
			continue
		}
		r.Jobs = kept
		d.routes[id] = r
	}

	helpers := map[model.TechnicianID][]model.Job{}
	for _, id := range d.routes.TechnicianIDs() {
		for _, j := range d.routes[id].Jobs {
			if j.AssignedDemoTech == nil {
				continue
			}
			hid := *j.AssignedDemoTech
			if hid == id || !roster[hid] {
				continue
			}
			h := j.Clone()
			h.Helper = true
			h.TravelMinutes = 0
			h.TravelEstimated = false
			helpers[hid] = append(helpers[hid], h)
		}
	}
	for hid, hs := range helpers {
		r := d.routes[hid]
		r.TechnicianID = hid
		r.Jobs = append(r.Jobs, hs...)
		sort.SliceStable(r.Jobs, func(a, b int) bool {
			sa, sb := r.Jobs[a].Start, r.Jobs[b].Start
			if sa == nil || sb == nil {
				return sa != nil
			}
			return *sa < *sb
		})
		d.routes[hid] = r
	}
}
