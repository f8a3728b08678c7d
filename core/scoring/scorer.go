package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/travel"
)

// DriveLookup is the part of the travel adapter the scorer needs.
type DriveLookup interface {
	DrivingTime(ctx context.Context, origin, dest string, departure *time.Time) travel.Drive
}

// History counts prior jobs per technician and job type over the period.
type History map[model.TechnicianID]map[string]int

// Count returns the number of prior jobs of jobType for the technician.
func (h History) Count(id model.TechnicianID, jobType string) int {
	if h == nil {
		return 0
	}
	return h[id][NormalizeJobType(jobType)]
}

// NormalizeJobType is the key History uses for a job type.
func NormalizeJobType(t string) string { return strings.ToLower(strings.TrimSpace(t)) }

// Day bundles the read-only state a score is computed against.
type Day struct {
	Routes       model.RouteMap
	Availability model.Availability
	History      History
}

// Result is the outcome of scoring one technician for one job.
type Result struct {
	Score        int      `json:"score"`
	Reasons      []string `json:"reasons"`
	DriveMinutes *int     `json:"drive_minutes,omitempty"`
	Disqualified bool     `json:"disqualified"`
}

// Candidate pairs a technician with its score.
type Candidate struct {
	Technician model.Technician `json:"technician"`
	Result     Result           `json:"result"`
}

// Scorer rates how well a technician fits a job.
type Scorer struct {
	Policy Policy
	drives DriveLookup
	log    logger.Logger
}

// NewScorer returns a scorer using the given drive lookup. drives may be nil,
// in which case the drive factor is skipped.
func NewScorer(p Policy, drives DriveLookup, log logger.Logger) *Scorer {
	return &Scorer{Policy: p, drives: drives, log: logger.OrNop(log)}
}

// Score evaluates every factor in order and clamps the total to [0,100].
func (s *Scorer) Score(ctx context.Context, day Day, tech model.Technician, job model.Job) Result {
	p := s.Policy
	if st := day.Availability.Status(tech.ID); st.Unavailable() {
		return Result{Score: 0, Reasons: []string{fmt.Sprintf("technician is %s", st)}, Disqualified: true}
	}
	score := 100
	var reasons []string
	add := func(points int, format string, args ...any) {
		score += points
		reasons = append(reasons, fmt.Sprintf("%s (%+d)", fmt.Sprintf(format, args...), points))
	}

	route := day.Routes[tech.ID]
	current := committedHours(route, job.ID)
	if job.DurationHours >= 0 {
		after := current + job.DurationHours
		switch {
		case after > p.OverCapacityHours:
			add(-p.OverCapacityPenalty, "would reach %.1fh, over %.1fh", after, p.OverCapacityHours)
		case after > p.NearCapacityHours:
			add(-p.NearCapacityPenalty, "would reach %.1fh, near capacity", after)
		case current < p.LightLoadHours:
			add(p.LightLoadBonus, "light load at %.1fh", current)
		}
	}

	if job.Zone != "" {
		if strings.EqualFold(job.Zone, tech.Zone) {
			add(p.ZoneMatch, "same zone %s", job.Zone)
		} else {
			add(-p.ZoneMismatch, "zone %s differs from %s", job.Zone, tech.Zone)
		}
	}

	if job.Office != "" && tech.Office != "" {
		if strings.EqualFold(job.Office, tech.Office) {
			add(p.OfficeMatch, "same office %s", tech.Office)
		} else {
			add(-p.OfficeMismatch, "office %s differs from %s", job.Office, tech.Office)
		}
	}

	var driveMinutes *int
	if origin, ok := lastCommittedAddress(route, job.ID); ok && s.drives != nil && job.Address != "" {
		d := s.drives.DrivingTime(ctx, origin, job.Address, nil)
		if d.Estimated {
			s.log.Debugf("drive factor skipped for %s -> %s", tech.ID, job.ID)
		} else {
			m := d.Minutes
			driveMinutes = &m
			add(s.drivePoints(m), "%d min from previous job", m)
		}
	}

	jobType := strings.ToLower(job.Type)
	role := strings.ToLower(tech.Role)
	switch {
	case strings.Contains(jobType, "demo") && tech.DemoCapable:
		add(p.DemoRoleBonus, "demo-capable for %s job", job.Type)
	case strings.Contains(jobType, "install") && strings.Contains(role, "lead"):
		add(p.InstallRoleBonus, "%s role fits install", tech.Role)
	case strings.Contains(jobType, "service") && strings.Contains(role, "service"):
		add(p.ServiceRoleBonus, "%s role fits %s", tech.Role, job.Type)
	case strings.Contains(jobType, "repair") && (strings.Contains(role, "service") || strings.Contains(role, "technician")):
		add(p.ServiceRoleBonus, "%s role fits %s", tech.Role, job.Type)
	}

	if n := day.History.Count(tech.ID, job.Type); n > p.HistoryHighCount {
		add(p.HistoryHighBonus, "%d prior %s jobs", n, job.Type)
	} else if n > p.HistoryLowCount {
		add(p.HistoryLowBonus, "%d prior %s jobs", n, job.Type)
	}

	if job.NeedsSecondTech && !tech.DemoCapable {
		add(p.TwoTechAnchorBonus, "can lead a two-technician job")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Result{Score: score, Reasons: reasons, DriveMinutes: driveMinutes}
}

func (s *Scorer) drivePoints(minutes int) int {
	for _, t := range s.Policy.DriveTiers {
		if minutes <= t.MaxMinutes {
			return t.Points
		}
	}
	return s.Policy.DriveBeyond
}

// Rank scores every technician, drops disqualified ones and returns the best
// limit candidates. Ties keep roster order. limit <= 0 uses the policy
// default.
func (s *Scorer) Rank(ctx context.Context, day Day, job model.Job, techs []model.Technician, limit int) []Candidate {
	if limit <= 0 {
		limit = s.Policy.DefaultLimit
	}
	out := make([]Candidate, 0, len(techs))
	for _, t := range techs {
		res := s.Score(ctx, day, t, job)
		if res.Disqualified {
			continue
		}
		out = append(out, Candidate{Technician: t, Result: res})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Result.Score > out[j].Result.Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// committedHours sums primary jobs on the route other than exclude.
func committedHours(r model.Route, exclude model.JobID) float64 {
	var h float64
	for _, j := range r.Jobs {
		if j.Helper || j.ID == exclude {
			continue
		}
		h += j.DurationHours
	}
	return h
}

func lastCommittedAddress(r model.Route, exclude model.JobID) (string, bool) {
	for i := len(r.Jobs) - 1; i >= 0; i-- {
		j := r.Jobs[i]
		if j.Helper || j.ID == exclude || j.Address == "" {
			continue
		}
		return j.Address, true
	}
	return "", false
}
