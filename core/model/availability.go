package model

import "strings"

// Status is a technician's availability for a given day.
type Status string

const (
	StatusAvailable Status = "available"
	StatusOff       Status = "off"
	StatusVacation  Status = "vacation"
	StatusSick      Status = "sick"
	StatusNoShow    Status = "no-show"
)

// Unavailable reports whether the status keeps the technician off the road.
func (s Status) Unavailable() bool {
	switch Status(strings.ToLower(string(s))) {
	case StatusOff, StatusVacation, StatusSick, StatusNoShow:
		return true
	}
	return false
}

// Availability maps technicians to their status for one day. Technicians
// without an entry are available.
type Availability map[TechnicianID]Status

// Status returns the recorded status or StatusAvailable.
func (a Availability) Status(id TechnicianID) Status {
	if s, ok := a[id]; ok && s != "" {
		return s
	}
	return StatusAvailable
}

// IsOff reports whether the technician cannot work that day.
func (a Availability) IsOff(id TechnicianID) bool {
	return a.Status(id).Unavailable()
}
