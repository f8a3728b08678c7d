// Package maps holds the travel providers: Google Maps, an OpenStreetMap
// estimate and a static table.
package maps

import (
	"github.com/kilianp07/fieldsched/core/factory"
	"github.com/kilianp07/fieldsched/core/travel"
)

var registry = factory.NewRegistry[travel.Provider]()

func init() {
	_ = registry.Register("google", func(conf map[string]any) (travel.Provider, error) {
		var o GoogleOptions
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewGoogle(o)
	})
	_ = registry.Register("nominatim", func(conf map[string]any) (travel.Provider, error) {
		var o NominatimOptions
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewNominatim(o), nil
	})
	_ = registry.Register("static", func(conf map[string]any) (travel.Provider, error) {
		var c struct {
			DefaultMinutes int                       `json:"default_minutes"`
			Drives         map[string]map[string]int `json:"drives"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		p := travel.NewStaticProvider(c.DefaultMinutes)
		for o, row := range c.Drives {
			for d, m := range row {
				p.SetDrive(o, d, m)
			}
		}
		return p, nil
	})
}

// NewProvider builds the provider named by cfg.Type.
func NewProvider(cfg factory.ModuleConfig) (travel.Provider, error) {
	return registry.Create(cfg)
}

// Providers lists the registered provider types.
func Providers() []string { return registry.Names() }
