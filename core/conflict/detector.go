// Package conflict finds scheduling violations in a day's routes and repairs
// the ones that have a safe mechanical fix.
package conflict

import (
	"fmt"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
)

// Policy holds detection and repair thresholds.
type Policy struct {
	// OvertimeHours is the primary work a route may carry before it is
	// flagged.
	OvertimeHours float64 `json:"overtime_hours"`
	// RelieveBelowHours is the load under which a technician may receive a
	// job moved off an overtime route.
	RelieveBelowHours float64 `json:"relieve_below_hours"`
}

func DefaultPolicy() Policy {
	return Policy{OvertimeHours: 8.5, RelieveBelowHours: 7}
}

// SetDefaults fills each unset threshold.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if p.OvertimeHours == 0 {
		p.OvertimeHours = d.OvertimeHours
	}
	if p.RelieveBelowHours == 0 {
		p.RelieveBelowHours = d.RelieveBelowHours
	}
}

// Detector scans routes for violations.
type Detector struct {
	Policy Policy
	log    logger.Logger
}

func NewDetector(p Policy, log logger.Logger) *Detector {
	return &Detector{Policy: p, log: logger.OrNop(log)}
}

// Detect returns every violation found in routes, most severe first. jobs is
// the authoritative job list; when a route entry is also present there, the
// list's copy is used for the second-technician check.
func (d *Detector) Detect(routes model.RouteMap, jobs []model.Job, avail model.Availability, techs []model.Technician) []model.Conflict {
	byID := make(map[model.JobID]model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	name := func(id model.TechnicianID) string {
		if t, ok := model.FindTechnician(techs, id); ok && t.Name != "" {
			return t.Name
		}
		return string(id)
	}

	var out []model.Conflict
	for _, tid := range routes.TechnicianIDs() {
		r := routes[tid]
		if len(r.Jobs) == 0 {
			continue
		}

		if st := avail.Status(tid); st.Unavailable() {
			out = append(out, model.Conflict{
				Kind:         model.ConflictTechnicianOff,
				Severity:     model.SeverityCritical,
				Message:      fmt.Sprintf("%s is %s but has %d jobs", name(tid), st, len(r.Jobs)),
				TechnicianID: tid,
				JobIDs:       jobIDs(r.Jobs),
			})
		}

		if h := r.WorkHours(); h > d.Policy.OvertimeHours {
			out = append(out, model.Conflict{
				Kind:         model.ConflictOvertime,
				Severity:     model.SeverityHigh,
				Message:      fmt.Sprintf("%s has %.1fh of work, over %.1fh", name(tid), h, d.Policy.OvertimeHours),
				TechnicianID: tid,
				JobIDs:       jobIDs(r.PrimaryJobs()),
			})
		}

		for _, j := range r.PrimaryJobs() {
			if j.Start == nil {
				continue
			}
			switch {
			case *j.Start < j.Window.Start:
				out = append(out, model.Conflict{
					Kind:         model.ConflictTimeframeEarly,
					Severity:     model.SeverityMedium,
					Message:      fmt.Sprintf("%s starts at %s, before its window %s", j.ID, j.Start, j.Window),
					TechnicianID: tid,
					JobIDs:       []model.JobID{j.ID},
				})
			case *j.Start > j.Window.End:
				out = append(out, model.Conflict{
					Kind:         model.ConflictTimeframeLate,
					Severity:     model.SeverityHigh,
					Message:      fmt.Sprintf("%s starts at %s, after its window %s", j.ID, j.Start, j.Window),
					TechnicianID: tid,
					JobIDs:       []model.JobID{j.ID},
				})
			}
		}

		for a := 0; a < len(r.Jobs); a++ {
			for b := a + 1; b < len(r.Jobs); b++ {
				if m := overlapMinutes(r.Jobs[a], r.Jobs[b]); m > 0 {
					out = append(out, model.Conflict{
						Kind:         model.ConflictOverlap,
						Severity:     model.SeverityCritical,
						Message:      fmt.Sprintf("%s and %s overlap by %d min", r.Jobs[a].ID, r.Jobs[b].ID, m),
						TechnicianID: tid,
						JobIDs:       []model.JobID{r.Jobs[a].ID, r.Jobs[b].ID},
					})
				}
			}
		}

		for _, j := range r.PrimaryJobs() {
			if listed, ok := byID[j.ID]; ok {
				j = listed
			}
			if j.NeedsSecondTech && !j.HasSecondTech() {
				out = append(out, model.Conflict{
					Kind:         model.ConflictMissingSecondTech,
					Severity:     model.SeverityMedium,
					Message:      fmt.Sprintf("%s needs a second technician", j.ID),
					TechnicianID: tid,
					JobIDs:       []model.JobID{j.ID},
				})
			}
		}
	}

	out = append(out, duplicates(routes)...)
	model.SortConflicts(out)
	d.log.Debugf("detected %d conflicts across %d routes", len(out), len(routes))
	return out
}

// duplicates reports every route after the first that holds the same primary
// job.
func duplicates(routes model.RouteMap) []model.Conflict {
	holders := map[model.JobID][]model.TechnicianID{}
	var order []model.JobID
	for _, tid := range routes.TechnicianIDs() {
		for _, j := range routes[tid].PrimaryJobs() {
			if len(holders[j.ID]) == 0 {
				order = append(order, j.ID)
			}
			if n := len(holders[j.ID]); n > 0 && holders[j.ID][n-1] == tid {
				continue
			}
			holders[j.ID] = append(holders[j.ID], tid)
		}
	}
	var out []model.Conflict
	for _, id := range order {
		h := holders[id]
		for _, other := range h[1:] {
			out = append(out, model.Conflict{
				Kind:              model.ConflictDuplicate,
				Severity:          model.SeverityCritical,
				Message:           fmt.Sprintf("%s is on both %s and %s", id, h[0], other),
				TechnicianID:      h[0],
				OtherTechnicianID: other,
				JobIDs:            []model.JobID{id},
			})
		}
	}
	return out
}

func overlapMinutes(a, b model.Job) int {
	if !a.Scheduled() || !b.Scheduled() {
		return 0
	}
	lo, hi := *a.Start, *a.End
	if *b.Start > lo {
		lo = *b.Start
	}
	if *b.End < hi {
		hi = *b.End
	}
	return hi.Sub(lo)
}

func jobIDs(jobs []model.Job) []model.JobID {
	out := make([]model.JobID, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
