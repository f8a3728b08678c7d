package config

import "fmt"

// LogConfig sets the process wide logger options. Empty values defer to the
// LOG_LEVEL and APP_ENV environment variables.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format" validate:"omitempty,oneof=json console"`
}

func (c *LogConfig) SetDefaults() {}

func (c LogConfig) Validate() error {
	switch c.Level {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}
