// Package factory is the generic registry behind every pluggable backend:
// metrics sinks, travel providers and day stores. A module is chosen by a
// type string and configured from a raw map decoded into a typed struct.
//
// Example usage:
//
//	reg := factory.NewRegistry[travel.Provider]()
//	reg.Register("static", func(conf map[string]any) (travel.Provider, error) {
//	    var c struct{ Minutes int `json:"default_minutes"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return travel.NewStaticProvider(c.Minutes), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "static", Conf: map[string]any{"default_minutes": 15}})
package factory
