package events

import (
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// Plan actions.
const (
	ActionPlan       = "plan"
	ActionFill       = "fill"
	ActionResequence = "resequence"
)

// RouteSummary is the per-technician digest carried by a PlanEvent.
type RouteSummary struct {
	TechnicianID  model.TechnicianID `json:"technician_id"`
	Jobs          int                `json:"jobs"`
	WorkHours     float64            `json:"work_hours"`
	TravelMinutes int                `json:"travel_minutes"`
	Strategy      string             `json:"strategy,omitempty"`
	Rating        string             `json:"rating,omitempty"`
	Score         int                `json:"score"`
}

// PlanEvent is published once per planner action.
type PlanEvent struct {
	PlanID       string         `json:"plan_id"`
	Date         string         `json:"date"`
	Action       string         `json:"action"`
	Routes       []RouteSummary `json:"routes"`
	Unassignable []model.JobID  `json:"unassignable,omitempty"`
	Conflicts    int            `json:"conflicts"`
	Critical     int            `json:"critical"`
	Fixed        int            `json:"fixed"`

	// ConflictKinds counts the conflicts left after auto-fix by kind.
	ConflictKinds map[model.ConflictKind]int `json:"conflict_kinds,omitempty"`
	Duration      time.Duration              `json:"duration"`
	Err           error                      `json:"-"`
}

// ConflictEvent carries one conflict that still needs a human.
type ConflictEvent struct {
	PlanID   string         `json:"plan_id"`
	Date     string         `json:"date"`
	Conflict model.Conflict `json:"conflict"`
}
