package planner

import (
	"fmt"

	"github.com/kilianp07/fieldsched/core/balance"
	"github.com/kilianp07/fieldsched/core/conflict"
	"github.com/kilianp07/fieldsched/core/quality"
	"github.com/kilianp07/fieldsched/core/scoring"
	"github.com/kilianp07/fieldsched/core/sequence"
)

// Config groups the scheduling policies and planner behaviour.
type Config struct {
	Scoring  scoring.Policy  `json:"scoring"`
	Sequence sequence.Policy `json:"sequence"`
	Quality  quality.Policy  `json:"quality"`
	Conflict conflict.Policy `json:"conflict"`

	ZonePenaltyHours float64 `json:"zone_penalty_hours"`
	// HistoryDays is how many past days feed the scorer's job history.
	HistoryDays int `json:"history_days"`
	// AutoFix runs the auto-fixer after detection unless a call overrides it.
	AutoFix bool `json:"auto_fix"`
	// TrafficAware forwards each leg's departure time to the provider.
	// Otherwise a per-route matrix is prefetched without departure times.
	TrafficAware      bool `json:"traffic_aware"`
	MatrixConcurrency int  `json:"matrix_concurrency"`
}

// DefaultConfig returns the stock policies with auto-fix enabled.
func DefaultConfig() Config {
	c := Config{AutoFix: true}
	c.SetDefaults()
	return c
}

// SetDefaults fills every unset policy field. The rater always judges
// windows with the sequencer's early-arrival buffer.
func (c *Config) SetDefaults() {
	c.Scoring.SetDefaults()
	c.Sequence.SetDefaults()
	c.Quality.SetDefaults()
	c.Conflict.SetDefaults()
	c.Quality.EarlyBufferMinutes = c.Sequence.EarlyBufferMinutes
	if c.ZonePenaltyHours <= 0 {
		c.ZonePenaltyHours = balance.DefaultZonePenaltyHours
	}
	if c.HistoryDays == 0 {
		c.HistoryDays = 30
	}
	if c.MatrixConcurrency <= 0 {
		c.MatrixConcurrency = 4
	}
}

// Validate rejects settings the algorithms cannot work with.
func (c Config) Validate() error {
	if c.HistoryDays < 0 {
		return fmt.Errorf("history_days must not be negative")
	}
	if c.Scoring.DefaultLimit <= 0 {
		return fmt.Errorf("scoring.default_limit must be positive")
	}
	for i := 1; i < len(c.Scoring.DriveTiers); i++ {
		if c.Scoring.DriveTiers[i].MaxMinutes <= c.Scoring.DriveTiers[i-1].MaxMinutes {
			return fmt.Errorf("scoring.drive_tiers must be sorted by max_minutes")
		}
	}
	if c.Sequence.EarlyBufferMinutes < 0 {
		return fmt.Errorf("sequence.early_buffer_minutes must not be negative")
	}
	if c.Quality.YellowAt > c.Quality.GreenAt {
		return fmt.Errorf("quality.yellow_at must not exceed quality.green_at")
	}
	if c.Conflict.RelieveBelowHours > c.Conflict.OvertimeHours {
		return fmt.Errorf("conflict.relieve_below_hours must not exceed conflict.overtime_hours")
	}
	return nil
}
