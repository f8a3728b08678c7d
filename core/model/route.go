package model

import "sort"

// Route is the ordered list of jobs a technician drives for one day. The
// order is the literal drive order.
type Route struct {
	TechnicianID TechnicianID `json:"technician_id"`
	Jobs         []Job        `json:"jobs"`
}

// Len returns the number of entries including helper entries.
func (r Route) Len() int { return len(r.Jobs) }

// PrimaryJobs returns the entries that are not second-technician helpers.
func (r Route) PrimaryJobs() []Job {
	out := make([]Job, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		if !j.Helper {
			out = append(out, j)
		}
	}
	return out
}

// WorkHours sums the duration of primary jobs.
func (r Route) WorkHours() float64 {
	var h float64
	for _, j := range r.Jobs {
		if !j.Helper {
			h += j.DurationHours
		}
	}
	return h
}

// TravelMinutes sums the travel time into each primary job.
func (r Route) TravelMinutes() int {
	var m int
	for _, j := range r.Jobs {
		if !j.Helper {
			m += j.TravelMinutes
		}
	}
	return m
}

// IndexOf returns the position of the job in the route or -1.
func (r Route) IndexOf(id JobID) int {
	for i, j := range r.Jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

// Clone deep copies the route.
func (r Route) Clone() Route {
	return Route{TechnicianID: r.TechnicianID, Jobs: CloneJobs(r.Jobs)}
}

// RouteMap holds every technician's route for one day.
type RouteMap map[TechnicianID]Route

// Clone deep copies the map.
func (m RouteMap) Clone() RouteMap {
	out := make(RouteMap, len(m))
	for id, r := range m {
		out[id] = r.Clone()
	}
	return out
}

// TechnicianIDs returns the keys in ascending order.
func (m RouteMap) TechnicianIDs() []TechnicianID {
	ids := make([]TechnicianID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Locate returns every technician whose route contains the job, in sorted
// technician order.
func (m RouteMap) Locate(id JobID) []TechnicianID {
	var out []TechnicianID
	for _, tid := range m.TechnicianIDs() {
		if m[tid].IndexOf(id) >= 0 {
			out = append(out, tid)
		}
	}
	return out
}

// Slice returns the routes in sorted technician order.
func (m RouteMap) Slice() []Route {
	out := make([]Route, 0, len(m))
	for _, id := range m.TechnicianIDs() {
		out = append(out, m[id])
	}
	return out
}

// RoutesFromSlice builds a RouteMap keyed by technician.
func RoutesFromSlice(routes []Route) RouteMap {
	out := make(RouteMap, len(routes))
	for _, r := range routes {
		out[r.TechnicianID] = r
	}
	return out
}

// CommittedHours returns the primary work hours already on a technician's
// route, or zero when the technician has no route.
func (m RouteMap) CommittedHours(id TechnicianID) float64 {
	r, ok := m[id]
	if !ok {
		return 0
	}
	return r.WorkHours()
}
