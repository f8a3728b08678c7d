package planner

import (
	"time"

	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/quality"
	"github.com/kilianp07/fieldsched/core/sequence"
	"github.com/kilianp07/fieldsched/core/store"
)

// PlanOptions tunes a single planner call.
type PlanOptions struct {
	AutoFix bool
	// Start overrides every technician's shift start.
	Start *model.Clock
}

// Plan is the outcome of a planner action. Routes and Jobs are the state
// that was persisted.
type Plan struct {
	ID     string         `json:"id"`
	Date   string         `json:"date"`
	Action string         `json:"action"`
	Routes model.RouteMap `json:"routes"`
	Jobs   []model.Job    `json:"jobs"`
	// Unassignable holds the sequencer's detail for jobs it could not place.
	Unassignable []sequence.Unassignable `json:"unassignable,omitempty"`
	// Unassigned lists every job without a technician once the action ends.
	Unassigned []model.JobID                 `json:"unassigned,omitempty"`
	Strategies map[model.TechnicianID]string `json:"strategies,omitempty"`
	Ratings    []quality.Rating              `json:"ratings"`
	Conflicts  []model.Conflict              `json:"conflicts"`
	Fixed      []model.Conflict              `json:"fixed,omitempty"`
	Unfixed    []model.Conflict              `json:"unfixed,omitempty"`
}

func newPlan(id string, day time.Time, action string) *Plan {
	return &Plan{
		ID:         id,
		Date:       store.DayKey(day),
		Action:     action,
		Routes:     model.RouteMap{},
		Strategies: map[model.TechnicianID]string{},
	}
}

// Critical counts the open critical conflicts.
func (p *Plan) Critical() int {
	n := 0
	for _, c := range p.Conflicts {
		if c.Severity == model.SeverityCritical {
			n++
		}
	}
	return n
}

// Rating returns the quality rating of a technician's route.
func (p *Plan) Rating(id model.TechnicianID) (quality.Rating, bool) {
	for _, r := range p.Ratings {
		if r.TechnicianID == id {
			return r, true
		}
	}
	return quality.Rating{}, false
}

// Event summarizes the plan for the bus, the plan log and metric sinks.
func (p *Plan) Event(took time.Duration, err error) events.PlanEvent {
	ev := events.PlanEvent{
		PlanID:       p.ID,
		Date:         p.Date,
		Action:       p.Action,
		Routes:       make([]events.RouteSummary, 0, len(p.Routes)),
		Unassignable: p.Unassigned,
		Conflicts:    len(p.Conflicts),
		Critical:     p.Critical(),
		Fixed:        len(p.Fixed),
		Duration:     took,
		Err:          err,
	}
	for _, id := range p.Routes.TechnicianIDs() {
		r := p.Routes[id]
		s := events.RouteSummary{
			TechnicianID:  id,
			Jobs:          len(r.PrimaryJobs()),
			WorkHours:     r.WorkHours(),
			TravelMinutes: r.TravelMinutes(),
			Strategy:      p.Strategies[id],
		}
		if rt, ok := p.Rating(id); ok {
			s.Rating = string(rt.Level)
			s.Score = rt.Score
		}
		ev.Routes = append(ev.Routes, s)
	}
	if len(p.Conflicts) > 0 {
		ev.ConflictKinds = map[model.ConflictKind]int{}
		for _, c := range p.Conflicts {
			ev.ConflictKinds[c.Kind]++
		}
	}
	return ev
}
