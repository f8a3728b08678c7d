package travel

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// ErrNotFound is returned by providers when an address cannot be resolved.
var ErrNotFound = errors.New("travel: address not found")

// Drive is the result of a driving time lookup.
type Drive struct {
	Minutes      int     `json:"minutes"`
	Miles        float64 `json:"miles"`
	TrafficAware bool    `json:"traffic_aware"`
	// Estimated is set when the value is the fallback duration rather than
	// a provider answer.
	Estimated bool `json:"estimated,omitempty"`
}

// Provider is an external geocoding and routing service.
type Provider interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, error)
	// DrivingTime returns the drive between two addresses. departure may be
	// nil; providers that cannot honour it fall back to a non traffic-aware
	// estimate.
	DrivingTime(ctx context.Context, origin, dest string, departure *time.Time) (Drive, error)
}
