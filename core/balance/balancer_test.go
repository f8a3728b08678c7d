package balance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kilianp07/fieldsched/core/model"
)

func job(id string, start string, hours float64, zone string) model.Job {
	w, err := model.ParseWindow(start, "23:00")
	if err != nil {
		panic(err)
	}
	return model.Job{ID: model.JobID(id), Window: w, DurationHours: hours, Zone: zone, Status: model.JobUnassigned}
}

func ids(js []model.Job) []model.JobID {
	var out []model.JobID
	for _, j := range js {
		out = append(out, j.ID)
	}
	return out
}

func TestBalanceNoTechnicians(t *testing.T) {
	_, err := New(nil).Balance([]model.Job{job("a", "09:00", 1, "")}, nil)
	if !errors.Is(err, ErrNoTechnicians) {
		t.Fatalf("expected ErrNoTechnicians got %v", err)
	}
}

func TestBalanceLeastLoadedWithZonePenalty(t *testing.T) {
	techs := []model.Technician{{ID: "n", Zone: "north"}, {ID: "s", Zone: "south"}}
	jobs := []model.Job{
		job("late-north", "13:00", 1, "north"),
		job("early-north", "08:00", 3, "north"),
		job("mid-north", "10:00", 1, "north"),
		job("south", "11:00", 1, "south"),
	}
	out, err := New(nil).Balance(jobs, techs)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// early-north -> n (0 vs 2), mid-north -> s (3 vs 2), south -> s (1 vs 5),
	// late-north -> n (3 vs 4).
	if got := ids(out["n"]); !reflect.DeepEqual(got, []model.JobID{"early-north", "late-north"}) {
		t.Fatalf("unexpected north assignment %v", got)
	}
	if got := ids(out["s"]); !reflect.DeepEqual(got, []model.JobID{"mid-north", "south"}) {
		t.Fatalf("unexpected south assignment %v", got)
	}
	for tid, js := range out {
		for _, j := range js {
			if j.AssignedTech == nil || *j.AssignedTech != tid || j.Status != model.JobAssigned {
				t.Fatalf("job %s not marked assigned to %s", j.ID, tid)
			}
		}
	}
	if jobs[0].AssignedTech != nil {
		t.Fatalf("input jobs must not be mutated")
	}
}

func TestBalanceSeededLoadAndTies(t *testing.T) {
	techs := []model.Technician{{ID: "a"}, {ID: "b"}}
	existing := model.RouteMap{"a": {TechnicianID: "a", Jobs: []model.Job{{ID: "x", DurationHours: 4}}}}
	out, err := New(nil, WithExistingRoutes(existing)).Balance([]model.Job{job("1", "09:00", 1, ""), job("2", "09:00", 1, "")}, techs)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if len(out["a"]) != 0 || len(out["b"]) != 2 {
		t.Fatalf("expected both jobs on b, got %v", out)
	}

	out, _ = New(nil).Balance([]model.Job{job("1", "09:00", 1, "")}, techs)
	if len(out["a"]) != 1 {
		t.Fatalf("tie should go to first technician, got %v", out)
	}
}

func TestBalanceDeterministic(t *testing.T) {
	techs := []model.Technician{{ID: "a", Zone: "z1"}, {ID: "b", Zone: "z2"}, {ID: "c", Zone: "z1"}}
	jobs := []model.Job{
		job("1", "09:00", 2, "z1"), job("2", "09:00", 1.5, "z2"), job("3", "10:30", 1, "z1"),
		job("4", "08:00", 2, "z2"), job("5", "12:00", 3, "z1"),
	}
	first, _ := New(nil).Balance(jobs, techs)
	for i := 0; i < 5; i++ {
		again, _ := New(nil).Balance(jobs, techs)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non deterministic balance")
		}
	}
}
