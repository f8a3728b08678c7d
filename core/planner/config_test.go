package planner

import (
	"testing"

	"github.com/kilianp07/fieldsched/core/conflict"
	"github.com/kilianp07/fieldsched/core/scoring"
	"github.com/kilianp07/fieldsched/core/sequence"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.Scoring.DefaultLimit != 5 {
		t.Fatalf("default limit %d", c.Scoring.DefaultLimit)
	}
	if c.Sequence.EarlyBufferMinutes != 90 || c.Quality.GreenAt != 80 || c.Conflict.OvertimeHours != 8.5 {
		t.Fatalf("policies not defaulted: %+v", c)
	}
	if c.HistoryDays != 30 || c.MatrixConcurrency != 4 || c.ZonePenaltyHours != 2 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.AutoFix {
		t.Fatalf("auto fix must stay off unless asked for")
	}
	if !DefaultConfig().AutoFix {
		t.Fatalf("DefaultConfig enables auto fix")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestConfigKeepsCustomPolicy(t *testing.T) {
	c := Config{Scoring: scoring.DefaultPolicy()}
	c.Scoring.DefaultLimit = 3
	c.SetDefaults()
	if c.Scoring.DefaultLimit != 3 {
		t.Fatalf("custom limit overwritten")
	}
}

func TestConfigFillsPartialPolicies(t *testing.T) {
	c := Config{
		Scoring:  scoring.Policy{ZoneMatch: 30},
		Sequence: sequence.Policy{EarlyBufferMinutes: 60},
		Conflict: conflict.Policy{OvertimeHours: 9},
	}
	c.SetDefaults()
	if c.Scoring.ZoneMatch != 30 || c.Scoring.DefaultLimit != 5 || len(c.Scoring.DriveTiers) != 3 {
		t.Fatalf("scoring not filled field by field: %+v", c.Scoring)
	}
	if c.Sequence.EarlyBufferMinutes != 60 || c.Sequence.UrgentFactor != 0.5 || c.Sequence.SoonWithin != 180 {
		t.Fatalf("sequence not filled: %+v", c.Sequence)
	}
	if c.Quality.EarlyBufferMinutes != 60 {
		t.Fatalf("rater buffer %d, want the sequencer's 60", c.Quality.EarlyBufferMinutes)
	}
	if c.Conflict.OvertimeHours != 9 || c.Conflict.RelieveBelowHours != 7 {
		t.Fatalf("conflict not filled: %+v", c.Conflict)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	bad := DefaultConfig()
	bad.Scoring.DriveTiers = []scoring.DriveTier{{MaxMinutes: 25}, {MaxMinutes: 15}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unsorted tiers to fail")
	}
	bad = DefaultConfig()
	bad.Quality.YellowAt = 90
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected yellow above green to fail")
	}
	bad = DefaultConfig()
	bad.HistoryDays = -1
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected negative history to fail")
	}
}
