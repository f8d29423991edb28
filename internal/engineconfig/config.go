package engineconfig

import (
	"time"

	"github.com/wonny/aurora/engine/pkg/config"
)

// Profile is an optional YAML overlay on top of the environment config.
// Unset fields keep the environment value.
type Profile struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Scoring    Scoring    `yaml:"scoring" json:"scoring"`
	Allocation Allocation `yaml:"allocation" json:"allocation"`
}

// Meta identifies the profile in logs
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Scoring overrides scoring parameters
type Scoring struct {
	LookbackDays   *int     `yaml:"lookback_days" json:"lookback_days,omitempty"`
	MinBars        *int     `yaml:"min_bars" json:"min_bars,omitempty"`
	MinVolume      *int64   `yaml:"min_volume" json:"min_volume,omitempty"`
	MinAgeDays     *int     `yaml:"min_age_days" json:"min_age_days,omitempty"`
	RiskFreeRate   *float64 `yaml:"risk_free_rate" json:"risk_free_rate,omitempty"`
	StaleRunWindow *string  `yaml:"stale_run_window" json:"stale_run_window,omitempty"` // Go duration, e.g. "90m"
}

// Allocation overrides allocation parameters
type Allocation struct {
	MaxInstruments   *int     `yaml:"max_instruments" json:"max_instruments,omitempty"`
	MinAllocationPct *float64 `yaml:"min_allocation_pct" json:"min_allocation_pct,omitempty"`
}

// Apply returns base with every set field of the profile replaced
func (p *Profile) Apply(base config.EngineConfig) (config.EngineConfig, error) {
	out := base

	if v := p.Scoring.LookbackDays; v != nil {
		out.LookbackDays = *v
	}
	if v := p.Scoring.MinBars; v != nil {
		out.MinBars = *v
	}
	if v := p.Scoring.MinVolume; v != nil {
		out.MinVolume = *v
	}
	if v := p.Scoring.MinAgeDays; v != nil {
		out.MinAgeDays = *v
	}
	if v := p.Scoring.RiskFreeRate; v != nil {
		out.RiskFreeRate = *v
	}
	if v := p.Scoring.StaleRunWindow; v != nil {
		d, err := time.ParseDuration(*v)
		if err != nil {
			return base, ValidationError{"scoring.stale_run_window", err.Error()}
		}
		out.StaleRunWindow = d
	}
	if v := p.Allocation.MaxInstruments; v != nil {
		out.MaxInstruments = *v
	}
	if v := p.Allocation.MinAllocationPct; v != nil {
		out.MinAllocationPct = *v
	}

	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
