package metrics

import "github.com/kilianp07/fieldsched/core/factory"

// Config lists the sinks to build. An empty list yields a NopSink.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusPath is where serve exposes the default registry.
	PrometheusPath string `json:"prometheus_path" yaml:"prometheus_path"`
}

func (c *Config) SetDefaults() {
	if c.PrometheusPath == "" {
		c.PrometheusPath = "/metrics"
	}
}

// Validate checks each sink has a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return errMissingType(i)
		}
	}
	return nil
}
