package sequence

import (
	"sort"

	"github.com/kilianp07/fieldsched/core/model"
)

// Ordering returns the order in which jobs are offered to the pass, as a
// permutation of indexes into jobs. It also breaks score ties.
type Ordering func(jobs []model.Job) []int

// Strategy is one attempt of the retry loop.
type Strategy struct {
	Name  string
	Order Ordering
	// StartOffset shifts the shift start, in minutes.
	StartOffset int
	// Urgency enables the near-deadline score multipliers.
	Urgency bool
	// Strict visits jobs in Order, taking the first feasible one instead of
	// the lowest scoring one.
	Strict bool
}

// InputOrder keeps the jobs as given.
func InputOrder(jobs []model.Job) []int {
	idx := make([]int, len(jobs))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// DeadlineFirst orders by window end, then window start.
func DeadlineFirst(jobs []model.Job) []int {
	idx := InputOrder(jobs)
	sort.SliceStable(idx, func(a, b int) bool {
		ja, jb := jobs[idx[a]], jobs[idx[b]]
		if ja.Window.End != jb.Window.End {
			return ja.Window.End < jb.Window.End
		}
		return ja.Window.Start < jb.Window.Start
	})
	return idx
}

// DefaultStrategies is the fixed retry list: a greedy pass with urgency
// weighting, then deadline-first, then deadline-first starting 15 minutes
// earlier.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "greedy", Order: InputOrder, Urgency: true},
		{Name: "deadline-first", Order: DeadlineFirst, Strict: true},
		{Name: "deadline-first-early", Order: DeadlineFirst, Strict: true, StartOffset: -15},
	}
}
