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

// DefaultGoogleBaseURL is the public Maps web service root.
const DefaultGoogleBaseURL = "https://maps.googleapis.com"

// GoogleOptions configures the Google client.
type GoogleOptions struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	// RequestsPerSecond throttles outgoing calls. Zero means 10.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Google resolves addresses with the Geocoding API and drives with the
// Distance Matrix API. Drives are traffic-aware when a departure is given.
type Google struct {
	opts    GoogleOptions
	client  *http.Client
	limiter *rate.Limiter
}

var _ travel.Provider = (*Google)(nil)

func NewGoogle(o GoogleOptions) (*Google, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("google maps: api_key is required")
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultGoogleBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 10
	}
	burst := int(math.Ceil(o.RequestsPerSecond))
	return &Google{
		opts:    o,
		client:  &http.Client{Timeout: o.Timeout},
		limiter: rate.NewLimiter(rate.Limit(o.RequestsPerSecond), burst),
	}, nil
}

type googleGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location model.Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

type googleValue struct {
	Value float64 `json:"value"`
}

type googleMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status            string       `json:"status"`
			Duration          googleValue  `json:"duration"`
			DurationInTraffic *googleValue `json:"duration_in_traffic"`
			Distance          googleValue  `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
	ErrorMessage string `json:"error_message"`
}

func (g *Google) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	params := url.Values{}
	params.Set("address", address)
	var res googleGeocodeResponse
	if err := g.get(ctx, "/maps/api/geocode/json", params, &res); err != nil {
		return model.Coordinates{}, err
	}
	switch res.Status {
	case "OK":
	case "ZERO_RESULTS":
		return model.Coordinates{}, travel.ErrNotFound
	default:
		return model.Coordinates{}, fmt.Errorf("geocode status %s: %s", res.Status, res.ErrorMessage)
	}
	if len(res.Results) == 0 {
		return model.Coordinates{}, travel.ErrNotFound
	}
	return res.Results[0].Geometry.Location, nil
}

func (g *Google) DrivingTime(ctx context.Context, origin, dest string, departure *time.Time) (travel.Drive, error) {
	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", dest)
	params.Set("mode", "driving")
	params.Set("units", "imperial")
	if departure != nil {
		params.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))
	}
	var res googleMatrixResponse
	if err := g.get(ctx, "/maps/api/distancematrix/json", params, &res); err != nil {
		return travel.Drive{}, err
	}
	if res.Status != "OK" {
		return travel.Drive{}, fmt.Errorf("distance matrix status %s: %s", res.Status, res.ErrorMessage)
	}
	if len(res.Rows) == 0 || len(res.Rows[0].Elements) == 0 {
		return travel.Drive{}, travel.ErrNotFound
	}
	el := res.Rows[0].Elements[0]
	if el.Status != "OK" {
		if el.Status == "NOT_FOUND" || el.Status == "ZERO_RESULTS" {
			return travel.Drive{}, travel.ErrNotFound
		}
		return travel.Drive{}, fmt.Errorf("distance matrix element status %s", el.Status)
	}
	d := travel.Drive{
		Minutes: int(math.Round(el.Duration.Value / 60)),
		Miles:   math.Round(el.Distance.Value/1609.344*10) / 10,
	}
	if el.DurationInTraffic != nil {
		d.Minutes = int(math.Round(el.DurationInTraffic.Value / 60))
		d.TrafficAware = true
	}
	return d, nil
}

func (g *Google) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	params.Set("key", g.opts.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("google maps request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google maps returned status code %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode google maps response: %w", err)
	}
	return nil
}
