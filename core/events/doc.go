// Package events defines what the planner emits on the event bus.
//
//   - PlanEvent: a planning action finished (or failed) for one day
//   - ConflictEvent: a critical conflict survived auto-fix
package events
