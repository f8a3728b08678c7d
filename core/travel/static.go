package travel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// StaticProvider answers from fixed tables. It backs offline runs and tests.
type StaticProvider struct {
	mu sync.Mutex
	// Drives holds minutes keyed by origin then destination, as given.
	Drives map[string]map[string]int
	// Default is returned for pairs missing from Drives. Negative makes
	// missing pairs fail.
	Default int
	// Coordinates answers Geocode.
	Coordinates map[string]model.Coordinates
	// Fail lists addresses whose lookups return an error.
	Fail  map[string]bool
	calls int
}

// NewStaticProvider returns a provider answering def minutes for every pair.
func NewStaticProvider(def int) *StaticProvider {
	return &StaticProvider{
		Drives:      map[string]map[string]int{},
		Default:     def,
		Coordinates: map[string]model.Coordinates{},
		Fail:        map[string]bool{},
	}
}

// SetDrive records a one-way drive.
func (p *StaticProvider) SetDrive(origin, dest string, minutes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Drives[origin] == nil {
		p.Drives[origin] = map[string]int{}
	}
	p.Drives[origin][dest] = minutes
}

// SetBoth records the drive in both directions.
func (p *StaticProvider) SetBoth(a, b string, minutes int) {
	p.SetDrive(a, b, minutes)
	p.SetDrive(b, a, minutes)
}

// Calls returns how many lookups reached the provider.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *StaticProvider) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	if p.Fail[address] {
		return model.Coordinates{}, ErrNotFound
	}
	c, ok := p.Coordinates[address]
	if !ok {
		return model.Coordinates{}, ErrNotFound
	}
	return c, nil
}

func (p *StaticProvider) DrivingTime(ctx context.Context, origin, dest string, _ *time.Time) (Drive, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := ctx.Err(); err != nil {
		return Drive{}, err
	}
	if p.Fail[origin] || p.Fail[dest] {
		return Drive{}, fmt.Errorf("no route from %q to %q", origin, dest)
	}
	if m, ok := p.Drives[origin][dest]; ok {
		return Drive{Minutes: m}, nil
	}
	if p.Default < 0 {
		return Drive{}, fmt.Errorf("no route from %q to %q", origin, dest)
	}
	return Drive{Minutes: p.Default}, nil
}
