package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/travel"
)

// DefaultNominatimBaseURL is the public OpenStreetMap instance.
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimOptions configures the geocoder and the distance estimate.
type NominatimOptions struct {
	BaseURL   string        `json:"base_url"`
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
	// RequestsPerSecond defaults to 1, the public instance's usage policy.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// RoadFactor scales great-circle distance to road distance.
	RoadFactor float64 `json:"road_factor"`
	// AverageMPH converts road miles to minutes.
	AverageMPH float64 `json:"average_mph"`
}

// Nominatim geocodes through OpenStreetMap and estimates drives from
// straight-line distance. It never reports traffic-aware drives.
type Nominatim struct {
	opts    NominatimOptions
	client  *http.Client
	limiter *rate.Limiter
}

var _ travel.Provider = (*Nominatim)(nil)

func NewNominatim(o NominatimOptions) *Nominatim {
	if o.BaseURL == "" {
		o.BaseURL = DefaultNominatimBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = "fieldsched/1.0"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 1
	}
	if o.RoadFactor <= 0 {
		o.RoadFactor = 1.3
	}
	if o.AverageMPH <= 0 {
		o.AverageMPH = 30
	}
	return &Nominatim{
		opts:    o,
		client:  &http.Client{Timeout: o.Timeout},
		limiter: rate.NewLimiter(rate.Limit(o.RequestsPerSecond), 1),
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return model.Coordinates{}, err
	}
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.opts.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, err
	}
	req.Header.Set("User-Agent", n.opts.UserAgent)
	resp, err := n.client.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.Coordinates{}, fmt.Errorf("nominatim returned status code %d", resp.StatusCode)
	}
	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return model.Coordinates{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return model.Coordinates{}, travel.ErrNotFound
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("nominatim lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("nominatim lon %q: %w", places[0].Lon, err)
	}
	return model.Coordinates{Lat: lat, Lng: lng}, nil
}

// DrivingTime geocodes both ends and estimates the drive. The departure is
// ignored.
func (n *Nominatim) DrivingTime(ctx context.Context, origin, dest string, _ *time.Time) (travel.Drive, error) {
	from, err := n.Geocode(ctx, origin)
	if err != nil {
		return travel.Drive{}, fmt.Errorf("origin: %w", err)
	}
	to, err := n.Geocode(ctx, dest)
	if err != nil {
		return travel.Drive{}, fmt.Errorf("destination: %w", err)
	}
	return n.Estimate(from, to), nil
}

// Estimate converts straight-line distance into a drive.
func (n *Nominatim) Estimate(from, to model.Coordinates) travel.Drive {
	miles := HaversineMiles(from, to) * n.opts.RoadFactor
	return travel.Drive{
		Minutes: int(math.Ceil(miles / n.opts.AverageMPH * 60)),
		Miles:   math.Round(miles*10) / 10,
	}
}
