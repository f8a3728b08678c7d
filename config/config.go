package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fieldsched/core/metrics"
	"github.com/kilianp07/fieldsched/core/planlog"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/infra/mqtt"
)

type Config struct {
	Scheduling planner.Config `json:"scheduling"`
	Travel     TravelConfig   `json:"travel"`
	Store      store.Config   `json:"store"`
	PlanLog    planlog.Config `json:"plan_log"`
	Metrics    metrics.Config `json:"metrics"`
	MQTT       mqtt.Config    `json:"mqtt"`
	Sentry     SentryConfig   `json:"sentry"`
	HTTP       HTTPConfig     `json:"http"`
	Log        LogConfig      `json:"log"`
}

var validate = validator.New()

// Load reads path (yaml or json) and applies K_ environment overrides, for
// example K_STORE__BACKEND=sqlite. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Unset scheduling keys keep their stock values. Slices merge element by
	// element when decoded, so configured tier lists replace the defaults.
	cfg := Config{Scheduling: planner.DefaultConfig()}
	if k.Exists("scheduling.scoring.drive_tiers") {
		cfg.Scheduling.Scoring.DriveTiers = nil
	}
	if k.Exists("scheduling.quality.ratio_tiers") {
		cfg.Scheduling.Quality.RatioTiers = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := Config{Scheduling: planner.DefaultConfig()}
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies every section's defaults.
func (c *Config) SetDefaults() {
	c.Scheduling.SetDefaults()
	c.Travel.SetDefaults()
	c.Store.SetDefaults()
	c.PlanLog.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Log.SetDefaults()
}

// Validate checks struct tags first, then each section's own rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	checks := []struct {
		section string
		fn      func() error
	}{
		{"scheduling", c.Scheduling.Validate},
		{"travel", c.Travel.Validate},
		{"store", c.Store.Validate},
		{"plan_log", c.PlanLog.Validate},
		{"metrics", c.Metrics.Validate},
		{"mqtt", c.MQTT.Validate},
		{"http", c.HTTP.Validate},
		{"log", c.Log.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}
