package scoring

import "reflect"

// DriveTier awards Points when the drive is at most MaxMinutes.
type DriveTier struct {
	MaxMinutes int `json:"max_minutes"`
	Points     int `json:"points"`
}

// Policy holds every weight and threshold used by the Scorer.
type Policy struct {
	OverCapacityHours   float64 `json:"over_capacity_hours"`
	OverCapacityPenalty int     `json:"over_capacity_penalty"`
	NearCapacityHours   float64 `json:"near_capacity_hours"`
	NearCapacityPenalty int     `json:"near_capacity_penalty"`
	LightLoadHours      float64 `json:"light_load_hours"`
	LightLoadBonus      int     `json:"light_load_bonus"`

	ZoneMatch      int `json:"zone_match"`
	ZoneMismatch   int `json:"zone_mismatch"`
	OfficeMatch    int `json:"office_match"`
	OfficeMismatch int `json:"office_mismatch"`

	// DriveTiers must be sorted by MaxMinutes; drives above the last tier
	// score DriveBeyond.
	DriveTiers  []DriveTier `json:"drive_tiers"`
	DriveBeyond int         `json:"drive_beyond"`

	DemoRoleBonus    int `json:"demo_role_bonus"`
	InstallRoleBonus int `json:"install_role_bonus"`
	ServiceRoleBonus int `json:"service_role_bonus"`

	HistoryHighCount int `json:"history_high_count"`
	HistoryHighBonus int `json:"history_high_bonus"`
	HistoryLowCount  int `json:"history_low_count"`
	HistoryLowBonus  int `json:"history_low_bonus"`

	TwoTechAnchorBonus int `json:"two_tech_anchor_bonus"`

	DefaultLimit int `json:"default_limit"`
}

// SetDefaults replaces an empty policy with the stock one and otherwise fills
// the thresholds that cannot meaningfully be zero. Weights are left alone so
// an explicit zero disables a factor.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if reflect.ValueOf(*p).IsZero() {
		*p = d
		return
	}
	if p.OverCapacityHours == 0 {
		p.OverCapacityHours = d.OverCapacityHours
	}
	if p.NearCapacityHours == 0 {
		p.NearCapacityHours = d.NearCapacityHours
	}
	if len(p.DriveTiers) == 0 {
		p.DriveTiers = d.DriveTiers
	}
	if p.DefaultLimit == 0 {
		p.DefaultLimit = d.DefaultLimit
	}
}

// DefaultPolicy returns the stock weights.
func DefaultPolicy() Policy {
	return Policy{
		OverCapacityHours:   8.5,
		OverCapacityPenalty: 50,
		NearCapacityHours:   7.5,
		NearCapacityPenalty: 20,
		LightLoadHours:      4,
		LightLoadBonus:      10,
		ZoneMatch:           20,
		ZoneMismatch:        15,
		OfficeMatch:         10,
		OfficeMismatch:      10,
		DriveTiers: []DriveTier{
			{MaxMinutes: 15, Points: 15},
			{MaxMinutes: 25, Points: 5},
			{MaxMinutes: 40, Points: -5},
		},
		DriveBeyond:        -15,
		DemoRoleBonus:      15,
		InstallRoleBonus:   10,
		ServiceRoleBonus:   10,
		HistoryHighCount:   5,
		HistoryHighBonus:   10,
		HistoryLowCount:    2,
		HistoryLowBonus:    5,
		TwoTechAnchorBonus: 5,
		DefaultLimit:       5,
	}
}
