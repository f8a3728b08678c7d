package travel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/monitoring"
)

// DefaultFallbackMinutes is used when a provider lookup fails.
const DefaultFallbackMinutes = 20

// Options tunes the Adapter.
type Options struct {
	// FallbackMinutes replaces failed drives. Zero means DefaultFallbackMinutes.
	FallbackMinutes int
	// TrafficHorizon is how far ahead a departure time is forwarded to the
	// provider. Departures in the past or beyond the horizon are dropped.
	TrafficHorizon time.Duration
	// Timeout bounds a single provider call. Zero disables it.
	Timeout time.Duration
	// Now is injectable for tests.
	Now func() time.Time
}

// Adapter memoizes provider lookups and degrades failures to estimates.
type Adapter struct {
	provider Provider
	cache    Cache
	opts     Options
	log      logger.Logger
	group    singleflight.Group
}

// NewAdapter wraps p. A nil cache uses an unbounded MemoryCache.
func NewAdapter(p Provider, c Cache, opts Options, log logger.Logger) *Adapter {
	if c == nil {
		c = NewMemoryCache(0, 0)
	}
	if opts.FallbackMinutes <= 0 {
		opts.FallbackMinutes = DefaultFallbackMinutes
	}
	if opts.TrafficHorizon <= 0 {
		opts.TrafficHorizon = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Adapter{provider: p, cache: c, opts: opts, log: logger.OrNop(log)}
}

// Fallback returns the estimate used for failed lookups.
func (a *Adapter) Fallback() Drive {
	return Drive{Minutes: a.opts.FallbackMinutes, Estimated: true}
}

func normalize(addr string) string {
	return strings.Join(strings.Fields(strings.ToLower(addr)), " ")
}

// Geocode resolves an address, using the cache first.
func (a *Adapter) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	key := normalize(address)
	if key == "" {
		return model.Coordinates{}, ErrNotFound
	}
	if c, ok := a.cache.GetCoordinates(ctx, key); ok {
		lookupsTotal.WithLabelValues("geocode", "hit").Inc()
		return c, nil
	}
	v, err, _ := a.group.Do("g:"+key, func() (any, error) {
		callCtx, cancel := a.callContext(ctx)
		defer cancel()
		start := time.Now()
		c, err := a.provider.Geocode(callCtx, address)
		providerLatency.WithLabelValues("geocode").Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		a.cache.SetCoordinates(ctx, key, c)
		return c, nil
	})
	if err != nil {
		lookupsTotal.WithLabelValues("geocode", "error").Inc()
		return model.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	lookupsTotal.WithLabelValues("geocode", "miss").Inc()
	return v.(model.Coordinates), nil
}

// DrivingTime returns the drive from origin to dest. It never fails: a
// provider error yields the fallback estimate, which is not cached so a later
// call can succeed.
func (a *Adapter) DrivingTime(ctx context.Context, origin, dest string, departure *time.Time) Drive {
	o, d := normalize(origin), normalize(dest)
	if o == "" || d == "" {
		return a.Fallback()
	}
	if o == d {
		return Drive{}
	}
	dep := a.usableDeparture(departure)
	key := o + "|" + d
	if dep != nil {
		key += "|" + dep.Truncate(15*time.Minute).UTC().Format(time.RFC3339)
	}
	if v, ok := a.cache.GetDrive(ctx, key); ok {
		lookupsTotal.WithLabelValues("drive", "hit").Inc()
		return v
	}
	v, err, _ := a.group.Do("d:"+key, func() (any, error) {
		callCtx, cancel := a.callContext(ctx)
		defer cancel()
		start := time.Now()
		res, err := a.provider.DrivingTime(callCtx, origin, dest, dep)
		providerLatency.WithLabelValues("drive").Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		if res.Minutes < 0 {
			return nil, fmt.Errorf("negative drive time %d", res.Minutes)
		}
		a.cache.SetDrive(ctx, key, res)
		return res, nil
	})
	if err != nil {
		lookupsTotal.WithLabelValues("drive", "fallback").Inc()
		fallbacksTotal.Inc()
		a.log.Warnf("drive %q -> %q failed, using %d min estimate: %v", origin, dest, a.opts.FallbackMinutes, err)
		monitoring.Capture("travel", err, "origin", origin, "dest", dest)
		return a.Fallback()
	}
	lookupsTotal.WithLabelValues("drive", "miss").Inc()
	return v.(Drive)
}

func (a *Adapter) usableDeparture(dep *time.Time) *time.Time {
	if dep == nil {
		return nil
	}
	now := a.opts.Now()
	if dep.Before(now) || dep.After(now.Add(a.opts.TrafficHorizon)) {
		return nil
	}
	d := *dep
	return &d
}

func (a *Adapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.Timeout > 0 {
		return context.WithTimeout(ctx, a.opts.Timeout)
	}
	return context.WithCancel(ctx)
}
