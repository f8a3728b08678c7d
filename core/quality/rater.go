// Package quality rates a finished route after sequencing.
package quality

import (
	"fmt"
	"reflect"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fieldsched/core/model"
)

// Level is the traffic-light rating.
type Level string

const (
	Green  Level = "green"
	Yellow Level = "yellow"
	Red    Level = "red"
)

// RatioTier costs Points when the drive ratio is strictly above Above.
type RatioTier struct {
	Above  float64 `json:"above"`
	Points int     `json:"points"`
}

// Policy holds the rater's thresholds.
type Policy struct {
	// RatioTiers is checked from the first entry; the first match applies.
	RatioTiers []RatioTier `json:"ratio_tiers"`
	// EarlyBufferMinutes is overwritten with the sequencer's buffer by the
	// planner config.
	EarlyBufferMinutes int     `json:"early_buffer_minutes"`
	ViolationPenalty   int     `json:"violation_penalty"`
	BacktrackFactor    float64 `json:"backtrack_factor"`
	BacktrackMinutes   int     `json:"backtrack_minutes"`
	BacktrackPenalty   int     `json:"backtrack_penalty"`
	UnderusedHours     float64 `json:"underused_hours"`
	UnderusedPenalty   int     `json:"underused_penalty"`
	GreenAt            int     `json:"green_at"`
	YellowAt           int     `json:"yellow_at"`
}

// DefaultPolicy returns the stock thresholds. A route spending more than 40%
// of its working time driving takes the steepest cut.
func DefaultPolicy() Policy {
	return Policy{
		RatioTiers: []RatioTier{
			{Above: 0.40, Points: -45},
			{Above: 0.25, Points: -30},
			{Above: 0.10, Points: -15},
		},
		EarlyBufferMinutes: 90,
		ViolationPenalty:   20,
		BacktrackFactor:    2,
		BacktrackMinutes:   30,
		BacktrackPenalty:   10,
		UnderusedHours:     4,
		UnderusedPenalty:   10,
		GreenAt:            80,
		YellowAt:           60,
	}
}

// SetDefaults replaces an empty policy with DefaultPolicy and otherwise fills
// the tiers and thresholds left unset.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if reflect.ValueOf(*p).IsZero() {
		*p = d
		return
	}
	if len(p.RatioTiers) == 0 {
		p.RatioTiers = d.RatioTiers
	}
	if p.BacktrackFactor == 0 {
		p.BacktrackFactor = d.BacktrackFactor
	}
	if p.BacktrackMinutes == 0 {
		p.BacktrackMinutes = d.BacktrackMinutes
	}
	if p.GreenAt == 0 && p.YellowAt == 0 {
		p.GreenAt, p.YellowAt = d.GreenAt, d.YellowAt
	}
}

// Details are the raw metrics behind a rating.
type Details struct {
	Jobs          int     `json:"jobs"`
	WorkHours     float64 `json:"work_hours"`
	TravelMinutes int     `json:"travel_minutes"`
	DriveRatio    float64 `json:"drive_ratio"`
	Violations    int     `json:"violations"`
	Backtracks    int     `json:"backtracks"`
}

// Rating is the rater's verdict for one route.
type Rating struct {
	TechnicianID model.TechnicianID `json:"technician_id"`
	Level        Level              `json:"level"`
	Score        int                `json:"score"`
	Reasons      []string           `json:"reasons,omitempty"`
	Details      Details            `json:"details"`
}

// Rater scores routes. The zero value is not usable; use New.
type Rater struct {
	Policy Policy
}

func New(p Policy) *Rater { return &Rater{Policy: p} }

// Rate scores r. Helper entries are ignored throughout.
func (q *Rater) Rate(r model.Route) Rating {
	p := q.Policy
	jobs := r.PrimaryJobs()
	out := Rating{TechnicianID: r.TechnicianID, Level: Green, Score: 100}
	if len(jobs) == 0 {
		return out
	}
	d := Details{Jobs: len(jobs), WorkHours: r.WorkHours(), TravelMinutes: r.TravelMinutes()}

	score := 100
	add := func(points int, format string, args ...any) {
		score += points
		out.Reasons = append(out.Reasons, fmt.Sprintf("%s (%+d)", fmt.Sprintf(format, args...), points))
	}

	if d.WorkHours > 0 {
		d.DriveRatio = float64(d.TravelMinutes) / (d.WorkHours * 60)
		for _, t := range p.RatioTiers {
			if d.DriveRatio > t.Above {
				add(t.Points, "driving is %.0f%% of work time", d.DriveRatio*100)
				break
			}
		}
	}

	for _, j := range jobs {
		if j.Start == nil {
			continue
		}
		if *j.Start < j.Window.Start.Add(-p.EarlyBufferMinutes) || *j.Start > j.Window.End {
			d.Violations++
		}
	}
	if d.Violations > 0 {
		add(-p.ViolationPenalty*d.Violations, "%d time window violations", d.Violations)
	}

	d.Backtracks = countBacktracks(jobs, p.BacktrackFactor, p.BacktrackMinutes)
	if d.Backtracks > 1 {
		add(-p.BacktrackPenalty*d.Backtracks, "%d backtracking legs", d.Backtracks)
	}

	if d.WorkHours < p.UnderusedHours {
		add(-p.UnderusedPenalty, "only %.1fh of work", d.WorkHours)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	out.Score = score
	out.Details = d
	switch {
	case score >= p.GreenAt:
		out.Level = Green
	case score >= p.YellowAt:
		out.Level = Yellow
	default:
		out.Level = Red
	}
	return out
}

// RateAll rates every route in technician order.
func (q *Rater) RateAll(routes model.RouteMap) []Rating {
	ids := routes.TechnicianIDs()
	out := make([]Rating, 0, len(ids))
	for _, id := range ids {
		out = append(out, q.Rate(routes[id]))
	}
	return out
}

// countBacktracks flags interior legs much longer than the legs around them.
func countBacktracks(jobs []model.Job, factor float64, minMinutes int) int {
	n := 0
	for i := 1; i < len(jobs)-1; i++ {
		leg := float64(jobs[i].TravelMinutes)
		around := stat.Mean([]float64{float64(jobs[i-1].TravelMinutes), float64(jobs[i+1].TravelMinutes)}, nil)
		if leg > factor*around && leg > float64(minMinutes) {
			n++
		}
	}
	return n
}
