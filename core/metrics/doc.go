// Package metrics defines the observability sinks fed by the planner.
//
// Every sink records PlanRun; RouteQualityRecorder and ConflictRecorder are
// optional. Sinks are built from configuration through the factory registry
// and NewMetricsSink wraps several of them in a MultiSink. Collect drains
// plan events from the event bus into a sink.
package metrics
