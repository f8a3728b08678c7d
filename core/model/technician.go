package model

// Shift identifies the part of the day a technician works.
type Shift string

const (
	ShiftFirst  Shift = "first"
	ShiftSecond Shift = "second"
)

// Default shift start times used when no override is configured.
var (
	FirstShiftStart  = ClockAt(8, 0)
	SecondShiftStart = ClockAt(12, 0)
)

// DefaultStart returns the shift's configured start clock.
func (s Shift) DefaultStart() Clock {
	if s == ShiftSecond {
		return SecondShiftStart
	}
	return FirstShiftStart
}

// Technician is a member of the roster.
type Technician struct {
	ID     TechnicianID `json:"id"`
	Name   string       `json:"name"`
	Role   string       `json:"role"`
	Zone   string       `json:"zone,omitempty"`
	Office string       `json:"office,omitempty"`
	// Depot is the address every route starts from.
	Depot       string `json:"depot"`
	Shift       Shift  `json:"shift"`
	DemoCapable bool   `json:"demo_capable,omitempty"`
}

// FindTechnician returns the roster entry with the given id.
func FindTechnician(techs []Technician, id TechnicianID) (Technician, bool) {
	for _, t := range techs {
		if t.ID == id {
			return t, true
		}
	}
	return Technician{}, false
}
