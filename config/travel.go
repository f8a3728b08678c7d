package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/fieldsched/core/factory"
)

// TravelConfig selects the travel provider and tunes the adapter around it.
type TravelConfig struct {
	// Provider is a registered provider type ("google", "nominatim",
	// "static") with its settings.
	Provider        factory.ModuleConfig `json:"provider"`
	FallbackMinutes int                  `json:"fallback_minutes" validate:"gte=0"`
	TrafficHorizon  time.Duration        `json:"traffic_horizon"`
	Timeout         time.Duration        `json:"timeout"`
	Cache           CacheConfig          `json:"cache"`
}

// CacheConfig selects where geocodes and drives are memoized.
type CacheConfig struct {
	Backend    string        `json:"backend" validate:"omitempty,oneof=memory redis"`
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries" validate:"gte=0"`
	RedisURL   string        `json:"redis_url"`
	Prefix     string        `json:"prefix"`
}

func (c *TravelConfig) SetDefaults() {
	if c.Provider.Type == "" {
		c.Provider.Type = "static"
	}
	if c.FallbackMinutes == 0 {
		c.FallbackMinutes = 20
	}
	if c.TrafficHorizon == 0 {
		c.TrafficHorizon = 7 * 24 * time.Hour
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}
}

func (c TravelConfig) Validate() error {
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required for the redis backend")
	}
	if c.TrafficHorizon < 0 || c.Timeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
