package model

import "sort"

// ConflictKind is the closed set of scheduling violations.
type ConflictKind string

const (
	ConflictOvertime          ConflictKind = "overtime"
	ConflictTechnicianOff     ConflictKind = "technician-off"
	ConflictTimeframeEarly    ConflictKind = "timeframe-early"
	ConflictTimeframeLate     ConflictKind = "timeframe-late"
	ConflictOverlap           ConflictKind = "overlap"
	ConflictMissingSecondTech ConflictKind = "missing-second-tech"
	ConflictDuplicate         ConflictKind = "duplicate-assignment"
)

// Severity orders conflicts for display.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns 0 for the most severe level.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Conflict is a detected violation. Conflicts are recomputed on every pass
// and never stored.
type Conflict struct {
	Kind         ConflictKind `json:"kind"`
	Severity     Severity     `json:"severity"`
	Message      string       `json:"message"`
	TechnicianID TechnicianID `json:"technician_id,omitempty"`
	// OtherTechnicianID is set for duplicate assignments.
	OtherTechnicianID TechnicianID `json:"other_technician_id,omitempty"`
	JobIDs            []JobID      `json:"job_ids,omitempty"`
}

// SortConflicts orders conflicts by severity keeping detection order within a
// level.
func SortConflicts(cs []Conflict) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Severity.Rank() < cs[j].Severity.Rank()
	})
}
