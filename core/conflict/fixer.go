package conflict

import (
	"sort"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
)

// FixResult is the repaired day. Routes and Jobs are fresh copies.
type FixResult struct {
	Routes  model.RouteMap   `json:"routes"`
	Jobs    []model.Job      `json:"jobs"`
	Fixed   []model.Conflict `json:"fixed"`
	Unfixed []model.Conflict `json:"unfixed"`
	// NeedsResequence lists routes whose order or content changed. Their
	// timing fields are stale until the sequencer runs again.
	NeedsResequence []model.TechnicianID `json:"needs_resequence,omitempty"`
}

// Fixer applies best-effort repairs.
type Fixer struct {
	Policy Policy
	log    logger.Logger
}

func NewFixer(p Policy, log logger.Logger) *Fixer {
	return &Fixer{Policy: p, log: logger.OrNop(log)}
}

type fixState struct {
	routes  model.RouteMap
	jobs    []model.Job
	index   map[model.JobID]int
	touched map[model.TechnicianID]bool
}

func (s *fixState) job(id model.JobID) *model.Job {
	if i, ok := s.index[id]; ok {
		return &s.jobs[i]
	}
	return nil
}

// Fix walks conflicts in order and repairs what it can. Overtime, technician
// off, late start and duplicate assignment have repairs; every other kind is
// returned unfixed. The inputs are not modified.
func (f *Fixer) Fix(conflicts []model.Conflict, routes model.RouteMap, jobs []model.Job, techs []model.Technician, avail model.Availability) FixResult {
	s := &fixState{
		routes:  routes.Clone(),
		jobs:    model.CloneJobs(jobs),
		index:   make(map[model.JobID]int, len(jobs)),
		touched: map[model.TechnicianID]bool{},
	}
	for i, j := range s.jobs {
		s.index[j.ID] = i
	}

	res := FixResult{}
	for _, c := range conflicts {
		var ok bool
		switch c.Kind {
		case model.ConflictOvertime:
			ok = f.relieve(s, c, techs, avail)
		case model.ConflictTechnicianOff:
			ok = f.clearRoute(s, c)
		case model.ConflictTimeframeLate:
			ok = f.swapEarlier(s, c)
		case model.ConflictDuplicate:
			ok = f.dropDuplicate(s, c)
		}
		if ok {
			res.Fixed = append(res.Fixed, c)
		} else {
			res.Unfixed = append(res.Unfixed, c)
		}
	}

	res.Routes = s.routes
	res.Jobs = s.jobs
	for id := range s.touched {
		if _, ok := s.routes[id]; ok {
			res.NeedsResequence = append(res.NeedsResequence, id)
		}
	}
	sort.Slice(res.NeedsResequence, func(i, j int) bool { return res.NeedsResequence[i] < res.NeedsResequence[j] })
	f.log.Infof("auto-fix: %d fixed, %d unfixed, %d routes to resequence", len(res.Fixed), len(res.Unfixed), len(res.NeedsResequence))
	return res
}

// relieve moves the last primary job of an overtime route to the first
// available technician, in ID order, below RelieveBelowHours.
func (f *Fixer) relieve(s *fixState, c model.Conflict, techs []model.Technician, avail model.Availability) bool {
	src, ok := s.routes[c.TechnicianID]
	if !ok || len(src.PrimaryJobs()) < 2 {
		return false
	}
	ids := make([]model.TechnicianID, 0, len(techs))
	for _, t := range techs {
		ids = append(ids, t.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var target model.TechnicianID
	for _, id := range ids {
		if id == c.TechnicianID || avail.IsOff(id) {
			continue
		}
		if s.routes.CommittedHours(id) < f.Policy.RelieveBelowHours {
			target = id
			break
		}
	}
	if target == "" {
		f.log.Debugf("overtime on %s: no technician under %.1fh", c.TechnicianID, f.Policy.RelieveBelowHours)
		return false
	}

	last := -1
	for i := len(src.Jobs) - 1; i >= 0; i-- {
		if !src.Jobs[i].Helper {
			last = i
			break
		}
	}
	moved := src.Jobs[last]
	src.Jobs = append(src.Jobs[:last:last], src.Jobs[last+1:]...)
	s.routes[c.TechnicianID] = src

	moved.ClearSchedule()
	moved.AssignTo(target)
	dst := s.routes[target]
	dst.TechnicianID = target
	dst.Jobs = append(dst.Jobs, moved)
	s.routes[target] = dst

	if j := s.job(moved.ID); j != nil {
		j.ClearSchedule()
		j.AssignTo(target)
	}
	s.touched[c.TechnicianID] = true
	s.touched[target] = true
	f.log.Infof("moved %s from %s to %s", moved.ID, c.TechnicianID, target)
	return true
}

// clearRoute unassigns everything on an unavailable technician's route and
// drops the route.
func (f *Fixer) clearRoute(s *fixState, c model.Conflict) bool {
	r, ok := s.routes[c.TechnicianID]
	if !ok {
		return true
	}
	for _, rj := range r.Jobs {
		j := s.job(rj.ID)
		if j == nil {
			continue
		}
		if rj.Helper {
			if j.AssignedDemoTech != nil && *j.AssignedDemoTech == c.TechnicianID {
				j.AssignedDemoTech = nil
			}
			continue
		}
		if j.AssignedTech == nil || *j.AssignedTech == c.TechnicianID {
			j.Unassign()
		}
	}
	delete(s.routes, c.TechnicianID)
	delete(s.touched, c.TechnicianID)
	f.log.Infof("cleared %d jobs from %s", len(r.Jobs), c.TechnicianID)
	return true
}

// swapEarlier moves a late job one slot forward in drive order.
func (f *Fixer) swapEarlier(s *fixState, c model.Conflict) bool {
	r, ok := s.routes[c.TechnicianID]
	if !ok || len(c.JobIDs) == 0 {
		return false
	}
	i := r.IndexOf(c.JobIDs[0])
	if i <= 0 {
		return false
	}
	r.Jobs[i-1], r.Jobs[i] = r.Jobs[i], r.Jobs[i-1]
	s.routes[c.TechnicianID] = r
	s.touched[c.TechnicianID] = true
	return true
}

// dropDuplicate keeps the job on the first technician's route only.
func (f *Fixer) dropDuplicate(s *fixState, c model.Conflict) bool {
	if len(c.JobIDs) == 0 || c.OtherTechnicianID == "" {
		return false
	}
	id := c.JobIDs[0]
	r, ok := s.routes[c.OtherTechnicianID]
	if !ok {
		return false
	}
	kept := make([]model.Job, 0, len(r.Jobs))
	removed := false
	for _, j := range r.Jobs {
		if j.ID == id && !j.Helper {
			removed = true
			continue
		}
		kept = append(kept, j)
	}
	if !removed {
		return false
	}
	r.Jobs = kept
	s.routes[c.OtherTechnicianID] = r
	if j := s.job(id); j != nil && j.AssignedTech != nil && *j.AssignedTech == c.OtherTechnicianID {
		if _, ok := s.routes[c.TechnicianID]; ok {
			j.AssignTo(c.TechnicianID)
		} else {
			j.Unassign()
		}
	}
	s.touched[c.OtherTechnicianID] = true
	return true
}
