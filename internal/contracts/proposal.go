package contracts

import "time"

// Default contribution policy used when a user has no active version
const DefaultMonthlyContribution = 500.0

// DefaultTargetAllocation returns a fresh copy of the built-in asset mix
func DefaultTargetAllocation() map[string]float64 {
	return map[string]float64{"equity": 80, "bonds": 20, "cash": 0}
}

// ContributionPolicy is the part of a user's investment policy the
// allocation engine consumes.
type ContributionPolicy struct {
	UserID              string             `json:"user_id"`
	VersionID           string             `json:"version_id,omitempty"` // empty for the default
	MonthlyContribution float64            `json:"monthly_contribution"`
	TargetAllocation    map[string]float64 `json:"target_allocation"`
}

// DefaultContributionPolicy is the built-in fallback policy
func DefaultContributionPolicy(userID string) *ContributionPolicy {
	return &ContributionPolicy{
		UserID:              userID,
		MonthlyContribution: DefaultMonthlyContribution,
		TargetAllocation:    DefaultTargetAllocation(),
	}
}

// IsDefault reports whether the policy is the built-in fallback
func (p *ContributionPolicy) IsDefault() bool {
	return p.VersionID == ""
}

// ProposalStatus is owned by downstream collaborators after creation
type ProposalStatus string

const ProposalPending ProposalStatus = "PENDING"

// ProposalTypeMonthly tags proposals produced by the monthly contribution plan
const ProposalTypeMonthly = "MONTHLY_PAC"

// ProposedLine is one instrument's share of the monthly contribution
type ProposedLine struct {
	InstrumentID     string  `json:"instrument_id"`
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	AllocationPct    float64 `json:"allocation_pct"`
	AllocationAmount float64 `json:"allocation_amount"`
	Score            int     `json:"score"`
	Metrics          Metrics `json:"metrics"`
}

// AllocationProposal is created once per (run, user)
type AllocationProposal struct {
	ID                  string             `json:"id"`
	RunID               string             `json:"run_id"`
	UserID              string             `json:"user_id"`
	ProposalDate        time.Time          `json:"proposal_date"`
	MonthlyContribution float64            `json:"monthly_contribution"`
	TargetAllocation    map[string]float64 `json:"target_allocation"`
	Status              ProposalStatus     `json:"status"`
	Lines               []ProposedLine     `json:"lines"`
}

// TotalPct sums the line percentages
func (p *AllocationProposal) TotalPct() float64 {
	var sum float64
	for _, l := range p.Lines {
		sum += l.AllocationPct
	}
	return sum
}

// TotalAmount sums the line amounts
func (p *AllocationProposal) TotalAmount() float64 {
	var sum float64
	for _, l := range p.Lines {
		sum += l.AllocationAmount
	}
	return sum
}
