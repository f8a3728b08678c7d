package model

// JobStatus tracks whether a job has been given to a technician.
type JobStatus string

const (
	JobUnassigned JobStatus = "unassigned"
	JobAssigned   JobStatus = "assigned"
)

// Coordinates is a resolved geographic position.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Job is a unit of field work with an address, a duration and a window in
// which the technician must start.
type Job struct {
	ID              JobID        `json:"id"`
	Customer        string       `json:"customer"`
	Address         string       `json:"address"`
	Location        *Coordinates `json:"location,omitempty"`
	DurationHours   float64      `json:"duration_hours"`
	Window          TimeWindow   `json:"window"`
	Type            string       `json:"type"`
	Zone            string       `json:"zone,omitempty"`
	Office          string       `json:"office,omitempty"`
	NeedsSecondTech bool         `json:"needs_second_tech,omitempty"`
	// DemoTech names a helper technician attached outside the roster.
	DemoTech         string        `json:"demo_tech,omitempty"`
	AssignedDemoTech *TechnicianID `json:"assigned_demo_tech,omitempty"`
	AssignedTech     *TechnicianID `json:"assigned_tech,omitempty"`
	Status           JobStatus     `json:"status"`
	// Helper marks a second-technician entry in a helper's route. Helper
	// entries are excluded from load, quality and overtime metrics.
	Helper bool `json:"helper,omitempty"`

	TravelMinutes   int    `json:"travel_minutes"`
	TravelEstimated bool   `json:"travel_estimated,omitempty"`
	Arrival         *Clock `json:"arrival,omitempty"`
	Start           *Clock `json:"start,omitempty"`
	End             *Clock `json:"end,omitempty"`
}

// DurationMinutes returns the job duration rounded to whole minutes.
func (j Job) DurationMinutes() int {
	return int(j.DurationHours*60 + 0.5)
}

// Scheduled reports whether the sequencer has populated the timing fields.
func (j Job) Scheduled() bool { return j.Start != nil && j.End != nil }

// ClearSchedule drops the computed timing fields.
func (j *Job) ClearSchedule() {
	j.TravelMinutes = 0
	j.TravelEstimated = false
	j.Arrival = nil
	j.Start = nil
	j.End = nil
}

// AssignTo marks the job as assigned to the technician.
func (j *Job) AssignTo(id TechnicianID) {
	j.AssignedTech = TechnicianRef(id)
	j.Status = JobAssigned
}

// Unassign clears the assignment and the computed schedule.
func (j *Job) Unassign() {
	j.AssignedTech = nil
	j.Status = JobUnassigned
	j.ClearSchedule()
}

// HasSecondTech reports whether a helper is attached either by name or by
// reference.
func (j Job) HasSecondTech() bool {
	return j.DemoTech != "" || j.AssignedDemoTech != nil
}

// Clone returns a copy that shares no pointers with j.
func (j Job) Clone() Job {
	c := j
	if j.Location != nil {
		loc := *j.Location
		c.Location = &loc
	}
	if j.AssignedDemoTech != nil {
		c.AssignedDemoTech = TechnicianRef(*j.AssignedDemoTech)
	}
	if j.AssignedTech != nil {
		c.AssignedTech = TechnicianRef(*j.AssignedTech)
	}
	if j.Arrival != nil {
		c.Arrival = ClockPtr(*j.Arrival)
	}
	if j.Start != nil {
		c.Start = ClockPtr(*j.Start)
	}
	if j.End != nil {
		c.End = ClockPtr(*j.End)
	}
	return c
}

// CloneJobs deep copies a job slice.
func CloneJobs(in []Job) []Job {
	if in == nil {
		return nil
	}
	out := make([]Job, len(in))
	for i, j := range in {
		out[i] = j.Clone()
	}
	return out
}
