package sequence

import (
	"context"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/travel"
)

// Stop is a waypoint. Index 0 is the depot and index i+1 the i-th job of the
// request, whatever order a strategy visits them in.
type Stop struct {
	Index   int
	Address string
}

// TravelSource yields driving minutes between stops. estimated is true when
// the value is a fallback rather than a real lookup.
type TravelSource interface {
	Minutes(ctx context.Context, from, to Stop, at model.Clock) (minutes int, estimated bool)
}

// DriveLookup is satisfied by *travel.Adapter.
type DriveLookup interface {
	DrivingTime(ctx context.Context, origin, dest string, departure *time.Time) travel.Drive
}

// ProviderSource asks the travel adapter for every leg. When Day is set the
// departure clock is forwarded for traffic-aware estimates.
type ProviderSource struct {
	Drives DriveLookup
	Day    *time.Time
}

func (s ProviderSource) Minutes(ctx context.Context, from, to Stop, at model.Clock) (int, bool) {
	var dep *time.Time
	if s.Day != nil {
		d := time.Date(s.Day.Year(), s.Day.Month(), s.Day.Day(), 0, 0, 0, 0, s.Day.Location()).
			Add(time.Duration(at) * time.Minute)
		dep = &d
	}
	d := s.Drives.DrivingTime(ctx, from.Address, to.Address, dep)
	return d.Minutes, d.Estimated
}

// TimeDependent reports whether a leg's minutes depend on the departure clock.
func (s ProviderSource) TimeDependent() bool { return s.Day != nil }

// MatrixSource reads a precomputed matrix keyed by stop index.
type MatrixSource struct {
	Matrix *travel.Matrix
}

func (s MatrixSource) Minutes(_ context.Context, from, to Stop, _ model.Clock) (int, bool) {
	n := s.Matrix.Size()
	if from.Index < 0 || to.Index < 0 || from.Index >= n || to.Index >= n {
		return travel.DefaultFallbackMinutes, true
	}
	return s.Matrix.Minutes(from.Index, to.Index), s.Matrix.Estimated(from.Index, to.Index)
}

// Addresses returns the waypoint list matching stop indexes: depot first,
// then the jobs in request order. It is the input BuildMatrix expects.
func Addresses(depot string, jobs []model.Job) []string {
	out := make([]string, 0, len(jobs)+1)
	out = append(out, depot)
	for _, j := range jobs {
		out = append(out, j.Address)
	}
	return out
}
