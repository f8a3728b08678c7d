package conflict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsched/core/model"
)

func scheduled(id, tech, start string, hours float64, window string) model.Job {
	from, to, _ := strings.Cut(window, "-")
	w, err := model.ParseWindow(from, to)
	if err != nil {
		panic(err)
	}
	s := model.MustClock(start)
	e := s.Add(int(hours * 60))
	j := model.Job{
		ID:            model.JobID(id),
		DurationHours: hours,
		Window:        w,
		Arrival:       model.ClockPtr(s),
		Start:         model.ClockPtr(s),
		End:           model.ClockPtr(e),
	}
	j.AssignTo(model.TechnicianID(tech))
	return j
}

func kinds(cs []model.Conflict) []model.ConflictKind {
	out := make([]model.ConflictKind, len(cs))
	for i, c := range cs {
		out[i] = c.Kind
	}
	return out
}

func countKind(cs []model.Conflict, k model.ConflictKind) int {
	n := 0
	for _, c := range cs {
		if c.Kind == k {
			n++
		}
	}
	return n
}

var roster = []model.Technician{{ID: "t1", Name: "Ana"}, {ID: "t2", Name: "Ben"}, {ID: "t3", Name: "Cy"}}

func TestDetectOverlapOnePerPair(t *testing.T) {
	for _, shift := range []int{1, 30, 59} {
		a := scheduled("a", "t1", "09:00", 1, "08:00-12:00")
		b := scheduled("b", "t1", model.ClockAt(10, 0).Add(-shift).String(), 1, "08:00-12:00")
		routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}}}

		got := NewDetector(DefaultPolicy(), nil).Detect(routes, []model.Job{a, b}, nil, roster)
		require.Equal(t, 1, countKind(got, model.ConflictOverlap), "overlap of %d min", shift)
		assert.Equal(t, []model.JobID{"a", "b"}, got[0].JobIDs)
		assert.Equal(t, model.SeverityCritical, got[0].Severity)
	}
}

func TestDetectAdjacentJobsDoNotOverlap(t *testing.T) {
	a := scheduled("a", "t1", "09:00", 1, "08:00-12:00")
	b := scheduled("b", "t1", "10:00", 1, "08:00-12:00")
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}}}
	got := NewDetector(DefaultPolicy(), nil).Detect(routes, nil, nil, roster)
	assert.Empty(t, got)
}

func TestDetectAllKindsSortedBySeverity(t *testing.T) {
	early := scheduled("early", "t1", "08:00", 4.5, "09:00-12:00")
	late := scheduled("late", "t1", "12:30", 4.5, "08:00-12:00")
	two := scheduled("two", "t2", "09:00", 1, "08:00-12:00")
	two.NeedsSecondTech = true
	dup := scheduled("dup", "t2", "11:00", 1, "08:00-12:00")
	dupCopy := dup.Clone()
	off := scheduled("off", "t3", "09:00", 1, "08:00-12:00")

	routes := model.RouteMap{
		"t1": {TechnicianID: "t1", Jobs: []model.Job{early, late}},
		"t2": {TechnicianID: "t2", Jobs: []model.Job{two, dup}},
		"t3": {TechnicianID: "t3", Jobs: []model.Job{off, dupCopy}},
	}
	avail := model.Availability{"t3": model.StatusSick}
	got := NewDetector(DefaultPolicy(), nil).Detect(routes, []model.Job{early, late, two, dup, off}, avail, roster)

	assert.Equal(t, []model.ConflictKind{
		model.ConflictTechnicianOff,
		model.ConflictDuplicate,
		model.ConflictOvertime,
		model.ConflictTimeframeLate,
		model.ConflictTimeframeEarly,
		model.ConflictMissingSecondTech,
	}, kinds(got))
	assert.Contains(t, got[0].Message, "Cy is sick")
	assert.Equal(t, model.TechnicianID("t2"), got[1].TechnicianID)
	assert.Equal(t, model.TechnicianID("t3"), got[1].OtherTechnicianID)
}

func TestDetectSecondTechUsesJobList(t *testing.T) {
	j := scheduled("two", "t1", "09:00", 1, "08:00-12:00")
	j.NeedsSecondTech = true
	listed := j.Clone()
	listed.AssignedDemoTech = model.TechnicianRef("t2")
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{j}}}

	got := NewDetector(DefaultPolicy(), nil).Detect(routes, []model.Job{listed}, nil, roster)
	assert.Empty(t, got)
}

func TestDetectIgnoresHelpersForLoad(t *testing.T) {
	a := scheduled("a", "t1", "08:00", 8, "08:00-12:00")
	h := scheduled("h", "t1", "16:00", 2, "08:00-17:00")
	h.Helper = true
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, h}}}
	got := NewDetector(DefaultPolicy(), nil).Detect(routes, nil, nil, roster)
	assert.Zero(t, countKind(got, model.ConflictOvertime))
}

func TestFixTechnicianOffConservation(t *testing.T) {
	a := scheduled("a", "t1", "09:00", 1, "08:00-12:00")
	b := scheduled("b", "t1", "10:00", 1, "08:00-12:00")
	other := scheduled("c", "t2", "09:00", 1, "08:00-12:00")
	routes := model.RouteMap{
		"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}},
		"t2": {TechnicianID: "t2", Jobs: []model.Job{other}},
	}
	jobs := []model.Job{a, b, other}
	avail := model.Availability{"t1": model.StatusVacation}

	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, jobs, avail, roster)
	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, jobs, roster, avail)

	_, present := res.Routes["t1"]
	assert.False(t, present)
	for _, j := range res.Jobs[:2] {
		assert.Nil(t, j.AssignedTech, "job %s", j.ID)
		assert.Equal(t, model.JobUnassigned, j.Status)
		assert.Nil(t, j.Start)
	}
	assert.Equal(t, model.TechnicianID("t2"), *res.Jobs[2].AssignedTech)
	assert.Len(t, res.Fixed, 1)
	assert.Empty(t, res.NeedsResequence)

	// inputs untouched
	assert.Len(t, routes["t1"].Jobs, 2)
	assert.NotNil(t, jobs[0].AssignedTech)
}

func TestFixOvertimeMovesLastJob(t *testing.T) {
	a := scheduled("a", "t1", "07:00", 5, "07:00-12:00")
	b := scheduled("b", "t1", "12:00", 4, "08:00-16:00")
	c := scheduled("c", "t2", "08:00", 7.5, "08:00-12:00")
	routes := model.RouteMap{
		"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}},
		"t2": {TechnicianID: "t2", Jobs: []model.Job{c}},
	}
	jobs := []model.Job{a, b, c}
	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, jobs, nil, roster)
	require.Equal(t, []model.ConflictKind{model.ConflictOvertime}, kinds(cs))

	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, jobs, roster, nil)
	require.Len(t, res.Fixed, 1)
	// t2 is at 7.5h so t3 receives the job.
	assert.Equal(t, []model.JobID{"a"}, jobIDs(res.Routes["t1"].Jobs))
	assert.Equal(t, []model.JobID{"b"}, jobIDs(res.Routes["t3"].Jobs))
	assert.Equal(t, model.TechnicianID("t3"), *res.Jobs[1].AssignedTech)
	assert.Nil(t, res.Routes["t3"].Jobs[0].Start)
	assert.Equal(t, []model.TechnicianID{"t1", "t3"}, res.NeedsResequence)
}

func TestFixOvertimeNeedsTwoJobsAndATarget(t *testing.T) {
	big := scheduled("big", "t1", "07:00", 9, "07:00-12:00")
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{big}}}
	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, nil, nil, roster)
	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, nil, roster, nil)
	assert.Len(t, res.Unfixed, 1)

	a := scheduled("a", "t1", "07:00", 5, "07:00-12:00")
	b := scheduled("b", "t1", "12:00", 4, "08:00-16:00")
	routes = model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}}}
	avail := model.Availability{"t2": model.StatusOff, "t3": model.StatusNoShow}
	cs = NewDetector(DefaultPolicy(), nil).Detect(routes, nil, avail, roster)
	res = NewFixer(DefaultPolicy(), nil).Fix(cs, routes, nil, roster, avail)
	assert.Len(t, res.Unfixed, 1)
	assert.Len(t, res.Routes["t1"].Jobs, 2)
}

func TestFixLateSwapsWithPredecessor(t *testing.T) {
	a := scheduled("a", "t1", "09:00", 2, "08:00-17:00")
	b := scheduled("b", "t1", "11:00", 1, "08:00-10:00")
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}}}
	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, nil, nil, roster)
	require.Equal(t, []model.ConflictKind{model.ConflictTimeframeLate}, kinds(cs))

	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, nil, roster, nil)
	assert.Equal(t, []model.JobID{"b", "a"}, jobIDs(res.Routes["t1"].Jobs))
	assert.Equal(t, []model.TechnicianID{"t1"}, res.NeedsResequence)

	first := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{b}}}
	cs = NewDetector(DefaultPolicy(), nil).Detect(first, nil, nil, roster)
	res = NewFixer(DefaultPolicy(), nil).Fix(cs, first, nil, roster, nil)
	assert.Len(t, res.Unfixed, 1)
}

func TestFixDuplicateKeepsFirst(t *testing.T) {
	j := scheduled("j", "t1", "09:00", 1, "08:00-12:00")
	dup := j.Clone()
	dup.AssignTo("t2")
	routes := model.RouteMap{
		"t1": {TechnicianID: "t1", Jobs: []model.Job{j}},
		"t2": {TechnicianID: "t2", Jobs: []model.Job{dup}},
	}
	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, []model.Job{dup}, nil, roster)
	require.Equal(t, 1, countKind(cs, model.ConflictDuplicate))

	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, []model.Job{dup}, roster, nil)
	assert.Empty(t, res.Routes["t2"].Jobs)
	assert.Len(t, res.Routes["t1"].Jobs, 1)
	assert.Equal(t, model.TechnicianID("t1"), *res.Jobs[0].AssignedTech)
}

func TestFixLeavesOtherKindsAlone(t *testing.T) {
	a := scheduled("a", "t1", "09:00", 1, "08:00-12:00")
	b := scheduled("b", "t1", "09:30", 1, "08:00-12:00")
	routes := model.RouteMap{"t1": {TechnicianID: "t1", Jobs: []model.Job{a, b}}}
	cs := NewDetector(DefaultPolicy(), nil).Detect(routes, nil, nil, roster)
	res := NewFixer(DefaultPolicy(), nil).Fix(cs, routes, nil, roster, nil)
	assert.Empty(t, res.Fixed)
	assert.Equal(t, cs, res.Unfixed)
	assert.Equal(t, routes, res.Routes)
}
