package model

// JobID identifies a job. It is a distinct type from TechnicianID so the two
// cannot be mixed up in maps or function arguments.
type JobID string

// TechnicianID identifies a technician.
type TechnicianID string

func (id JobID) String() string        { return string(id) }
func (id TechnicianID) String() string { return string(id) }

// TechnicianRef returns a pointer to a copy of id, handy for the nullable
// assignment fields on Job.
func TechnicianRef(id TechnicianID) *TechnicianID { return &id }
