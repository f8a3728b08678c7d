// Package sequence orders one technician's jobs into a time-feasible route.
//
// The core pass is a greedy nearest-feasible heuristic over time windows. A
// technician may arrive up to EarlyBufferMinutes before a window opens and
// starts work on arrival. When every remaining job is only blocked by being
// too early, the technician holds departure until the earliest buffer opens.
// Sequence runs a fixed list of strategies and keeps the run that leaves the
// fewest jobs unplaced.
package sequence

import (
	"context"
	"fmt"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
)

// Policy holds the sequencer's tunables.
type Policy struct {
	EarlyBufferMinutes int     `json:"early_buffer_minutes"`
	EarlyPenaltyWeight float64 `json:"early_penalty_weight"`
	UrgentWithin       int     `json:"urgent_within_minutes"`
	UrgentFactor       float64 `json:"urgent_factor"`
	SoonWithin         int     `json:"soon_within_minutes"`
	SoonFactor         float64 `json:"soon_factor"`
}

// DefaultPolicy returns the stock values.
func DefaultPolicy() Policy {
	return Policy{
		EarlyBufferMinutes: 90,
		EarlyPenaltyWeight: 0.1,
		UrgentWithin:       120,
		UrgentFactor:       0.5,
		SoonWithin:         180,
		SoonFactor:         0.7,
	}
}

// SetDefaults fills the urgency windows and factors left at zero. An empty
// policy becomes DefaultPolicy.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if *p == (Policy{}) {
		*p = d
		return
	}
	if p.UrgentWithin == 0 {
		p.UrgentWithin = d.UrgentWithin
	}
	if p.UrgentFactor == 0 {
		p.UrgentFactor = d.UrgentFactor
	}
	if p.SoonWithin == 0 {
		p.SoonWithin = d.SoonWithin
	}
	if p.SoonFactor == 0 {
		p.SoonFactor = d.SoonFactor
	}
}

// Request is the input for one technician.
type Request struct {
	Technician model.Technician
	Jobs       []model.Job
	// Start overrides the shift default when set.
	Start  *model.Clock
	Travel TravelSource
}

// Unassignable describes a job the pass could not place.
type Unassignable struct {
	Job              model.Job   `json:"job"`
	EstimatedArrival model.Clock `json:"estimated_arrival"`
	MinutesLate      int         `json:"minutes_late"`
	WindowEnd        model.Clock `json:"window_end"`
	Reason           string      `json:"reason"`
}

// Result is the sequenced route for one technician.
type Result struct {
	Jobs         []model.Job    `json:"jobs"`
	Unassignable []Unassignable `json:"unassignable,omitempty"`
	Strategy     string         `json:"strategy"`
	Start        model.Clock    `json:"start"`
}

// Route returns the placed jobs as a Route.
func (r Result) Route(id model.TechnicianID) model.Route {
	return model.Route{TechnicianID: id, Jobs: r.Jobs}
}

// Sequencer runs the strategy list.
type Sequencer struct {
	Policy     Policy
	Strategies []Strategy
	log        logger.Logger
}

// New returns a Sequencer with the default strategy list.
func New(p Policy, log logger.Logger) *Sequencer {
	return &Sequencer{Policy: p, Strategies: DefaultStrategies(), log: logger.OrNop(log)}
}

type legKey struct {
	from, to int
	at       model.Clock
}

type legMemo struct {
	src   TravelSource
	timed bool
	cache map[legKey]leg
}

func newLegMemo(src TravelSource) *legMemo {
	m := &legMemo{src: src, cache: map[legKey]leg{}}
	if td, ok := src.(interface{ TimeDependent() bool }); ok {
		m.timed = td.TimeDependent()
	}
	return m
}

type leg struct {
	minutes   int
	estimated bool
}

func (m *legMemo) get(ctx context.Context, from, to Stop, at model.Clock) leg {
	k := legKey{from: from.Index, to: to.Index}
	if m.timed {
		k.at = at
	}
	if l, ok := m.cache[k]; ok {
		return l
	}
	minutes, est := m.src.Minutes(ctx, from, to, at)
	if minutes < 0 {
		minutes, est = 0, true
	}
	l := leg{minutes: minutes, estimated: est}
	m.cache[k] = l
	return l
}

// Sequence orders req.Jobs. Strategies are tried in order; the first run is
// kept unless a later one leaves strictly fewer unassignable jobs. Input jobs
// are not modified.
func (s *Sequencer) Sequence(ctx context.Context, req Request) Result {
	base := req.Technician.Shift.DefaultStart()
	if req.Start != nil {
		base = *req.Start
	}
	memo := newLegMemo(req.Travel)

	var best Result
	for i, st := range s.Strategies {
		res := s.run(ctx, req, st, base.Add(st.StartOffset), memo)
		s.log.Debugf("%s: strategy %s placed %d, left %d", req.Technician.ID, st.Name, len(res.Jobs), len(res.Unassignable))
		if i == 0 || len(res.Unassignable) < len(best.Unassignable) {
			best = res
		}
		if len(best.Unassignable) == 0 {
			break
		}
	}
	return best
}

type candidate struct {
	idx     int
	arrival model.Clock
	travel  leg
	score   float64
}

// Run executes a single strategy. It is exported for callers that want one
// specific ordering without the retry loop.
func (s *Sequencer) Run(ctx context.Context, req Request, st Strategy) Result {
	base := req.Technician.Shift.DefaultStart()
	if req.Start != nil {
		base = *req.Start
	}
	return s.run(ctx, req, st, base.Add(st.StartOffset), newLegMemo(req.Travel))
}

func (s *Sequencer) run(ctx context.Context, req Request, st Strategy, start model.Clock, memo *legMemo) Result {
	p := s.Policy
	res := Result{Strategy: st.Name, Start: start, Jobs: []model.Job{}}
	stops := make([]Stop, len(req.Jobs))
	for i, j := range req.Jobs {
		stops[i] = Stop{Index: i + 1, Address: j.Address}
	}

	var pool []int
	for _, idx := range st.Order(req.Jobs) {
		j := req.Jobs[idx]
		if !j.Window.Valid() || j.DurationHours < 0 {
			u := Unassignable{Job: j.Clone(), WindowEnd: j.Window.End, Reason: "invalid input"}
			u.Job.ClearSchedule()
			res.Unassignable = append(res.Unassignable, u)
			continue
		}
		pool = append(pool, idx)
	}

	clock := start
	pos := Stop{Index: 0, Address: req.Technician.Depot}
	for len(pool) > 0 {
		var (
			best     *candidate
			deferred *candidate
			bestPos  int
			deferPos int
		)
		for k, idx := range pool {
			j := req.Jobs[idx]
			l := memo.get(ctx, pos, stops[idx], clock)
			arrival := clock.Add(l.minutes)
			opens := j.Window.Start.Add(-p.EarlyBufferMinutes)
			if arrival > j.Window.End {
				continue
			}
			if arrival < opens {
				c := candidate{idx: idx, arrival: opens, travel: l, score: float64(l.minutes)}
				if deferred == nil || c.arrival < deferred.arrival || (c.arrival == deferred.arrival && c.score < deferred.score) {
					deferred, deferPos = &c, k
				}
				continue
			}
			score := float64(l.minutes)
			if early := j.Window.Start.Sub(arrival); early > 0 {
				score += p.EarlyPenaltyWeight * float64(early)
			}
			if st.Urgency {
				untilDeadline := j.Window.End.Sub(arrival)
				switch {
				case untilDeadline <= p.UrgentWithin:
					score *= p.UrgentFactor
				case untilDeadline <= p.SoonWithin:
					score *= p.SoonFactor
				}
			}
			if best == nil || score < best.score {
				best, bestPos = &candidate{idx: idx, arrival: arrival, travel: l, score: score}, k
			}
			if st.Strict {
				break
			}
		}
		if best == nil && deferred != nil {
			best, bestPos = deferred, deferPos
		}
		if best == nil {
			for _, idx := range pool {
				j := req.Jobs[idx]
				l := memo.get(ctx, pos, stops[idx], clock)
				arrival := clock.Add(l.minutes)
				late := arrival.Sub(j.Window.End)
				if late < 0 {
					late = 0
				}
				u := Unassignable{
					Job:              j.Clone(),
					EstimatedArrival: arrival,
					MinutesLate:      late,
					WindowEnd:        j.Window.End,
					Reason:           fmt.Sprintf("arrives %s after window end %s", arrival, j.Window.End),
				}
				u.Job.ClearSchedule()
				res.Unassignable = append(res.Unassignable, u)
			}
			break
		}

		j := req.Jobs[best.idx].Clone()
		end := best.arrival.Add(j.DurationMinutes())
		j.TravelMinutes = best.travel.minutes
		j.TravelEstimated = best.travel.estimated
		j.Arrival = model.ClockPtr(best.arrival)
		j.Start = model.ClockPtr(best.arrival)
		j.End = model.ClockPtr(end)
		j.AssignTo(req.Technician.ID)
		res.Jobs = append(res.Jobs, j)

		clock = end
		pos = stops[best.idx]
		pool = append(pool[:bestPos], pool[bestPos+1:]...)
	}
	return res
}
