package scenarios

import (
	"context"
	"fmt"
	"sort"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/core/travel"
)

// Expected lists the checks applied to the last action's plan. Empty maps
// skip the check, except Conflicts, which must match exactly.
type Expected struct {
	Assignments map[string]string `yaml:"assignments"`
	Starts      map[string]string `yaml:"starts"`
	Unassigned  []string          `yaml:"unassigned"`
	Conflicts   map[string]int    `yaml:"conflicts"`
	Fixed       map[string]int    `yaml:"fixed"`
	Ratings     map[string]string `yaml:"ratings"`
}

// Outcome is the result of running a scenario.
type Outcome struct {
	Plan     *planner.Plan
	Failures []string
}

// Passed reports whether every expectation held.
func (o Outcome) Passed() bool { return len(o.Failures) == 0 }

// Execute seeds a fresh memory store, runs the actions in order and checks
// the last plan.
func Execute(ctx context.Context, sc *Scenario, cfg planner.Config, log logger.Logger) (*Outcome, error) {
	return ExecuteOn(ctx, sc, store.NewMemory(), cfg, log)
}

// ExecuteOn is Execute against st. Drives always come from the fixture.
func ExecuteOn(ctx context.Context, sc *Scenario, st store.Store, cfg planner.Config, log logger.Logger, opts ...planner.Option) (*Outcome, error) {
	if err := sc.Seed(ctx, st); err != nil {
		return nil, err
	}
	drives := travel.NewAdapter(sc.Provider(), nil, travel.Options{}, log)
	p := planner.New(cfg, st, drives, log, opts...)
	plan, err := Run(ctx, sc, p)
	if err != nil {
		return nil, err
	}
	return &Outcome{Plan: plan, Failures: sc.Expected.Check(plan)}, nil
}

// Run applies the scenario's actions to p and returns the last plan.
func Run(ctx context.Context, sc *Scenario, p *planner.Planner) (*planner.Plan, error) {
	day, err := sc.Day()
	if err != nil {
		return nil, err
	}
	var plan *planner.Plan
	for i, a := range sc.Actions {
		opts := planner.PlanOptions{AutoFix: a.AutoFix}
		switch a.Action {
		case "plan":
			plan, err = p.PlanDay(ctx, day, opts)
		case "fill":
			plan, err = p.SmartFill(ctx, day, opts)
		case "resequence":
			plan, err = p.Resequence(ctx, day, model.TechnicianID(a.Technician))
		default:
			err = fmt.Errorf("unknown action %q", a.Action)
		}
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i, a.Action, err)
		}
	}
	return plan, nil
}

// Check compares plan against the expectations and describes each mismatch.
func (e Expected) Check(plan *planner.Plan) []string {
	var out []string
	fail := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }

	assigned := map[model.JobID]string{}
	for _, j := range plan.Jobs {
		if j.AssignedTech != nil {
			assigned[j.ID] = string(*j.AssignedTech)
		}
	}
	for _, id := range sortedKeys(e.Assignments) {
		if got := assigned[model.JobID(id)]; got != e.Assignments[id] {
			fail("job %s: assigned to %q, want %q", id, got, e.Assignments[id])
		}
	}

	starts := map[model.JobID]string{}
	for _, r := range plan.Routes {
		for _, j := range r.Jobs {
			if !j.Helper && j.Start != nil {
				starts[j.ID] = j.Start.String()
			}
		}
	}
	for _, id := range sortedKeys(e.Starts) {
		if got := starts[model.JobID(id)]; got != e.Starts[id] {
			fail("job %s: starts at %q, want %q", id, got, e.Starts[id])
		}
	}

	got := make([]string, len(plan.Unassigned))
	for i, id := range plan.Unassigned {
		got[i] = string(id)
	}
	want := append([]string(nil), e.Unassigned...)
	sort.Strings(got)
	sort.Strings(want)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		fail("unassigned %v, want %v", got, want)
	}

	if kinds := countKinds(plan.Conflicts); !sameCounts(kinds, e.Conflicts) {
		fail("conflicts %v, want %v", kinds, e.Conflicts)
	}
	if e.Fixed != nil {
		if kinds := countKinds(plan.Fixed); !sameCounts(kinds, e.Fixed) {
			fail("fixed %v, want %v", kinds, e.Fixed)
		}
	}

	for _, id := range sortedKeys(e.Ratings) {
		r, ok := plan.Rating(model.TechnicianID(id))
		if !ok {
			fail("technician %s: no rating", id)
			continue
		}
		if string(r.Level) != e.Ratings[id] {
			fail("technician %s: rated %s, want %s", id, r.Level, e.Ratings[id])
		}
	}
	return out
}

func countKinds(cs []model.Conflict) map[string]int {
	out := map[string]int{}
	for _, c := range cs {
		out[string(c.Kind)]++
	}
	return out
}

func sameCounts(got, want map[string]int) bool {
	for k, n := range want {
		if got[k] != n {
			return false
		}
	}
	for k, n := range got {
		if want[k] != n {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
