package engineconfig

import "fmt"

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields that are set. Cross-field rules are left to
// config.EngineConfig.Validate after the overlay is applied.
func Validate(p *Profile) error {
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	s := p.Scoring
	if s.LookbackDays != nil && *s.LookbackDays <= 0 {
		return ValidationError{"scoring.lookback_days", "must be > 0"}
	}
	if s.MinBars != nil && *s.MinBars < 2 {
		return ValidationError{"scoring.min_bars", "must be >= 2"}
	}
	if s.MinBars != nil && s.LookbackDays != nil && *s.MinBars > *s.LookbackDays {
		return ValidationError{"scoring.min_bars", "cannot exceed lookback_days"}
	}
	if s.MinVolume != nil && *s.MinVolume < 0 {
		return ValidationError{"scoring.min_volume", "must be >= 0"}
	}
	if s.MinAgeDays != nil && *s.MinAgeDays < 0 {
		return ValidationError{"scoring.min_age_days", "must be >= 0"}
	}
	if s.RiskFreeRate != nil && (*s.RiskFreeRate < 0 || *s.RiskFreeRate > 0.2) {
		return ValidationError{"scoring.risk_free_rate", "must be in [0, 0.2]"}
	}

	a := p.Allocation
	if a.MaxInstruments != nil && (*a.MaxInstruments < 1 || *a.MaxInstruments > 50) {
		return ValidationError{"allocation.max_instruments", "must be in [1, 50]"}
	}
	if a.MinAllocationPct != nil && (*a.MinAllocationPct < 0 || *a.MinAllocationPct >= 100) {
		return ValidationError{"allocation.min_allocation_pct", "must be in [0, 100)"}
	}

	return nil
}
