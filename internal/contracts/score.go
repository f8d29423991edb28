package contracts

import "time"

// MaxSubScore bounds each of the four sub-scores
const MaxSubScore = 25

// Bucket is the letter grade of a composite score
type Bucket string

const (
	BucketA Bucket = "A"
	BucketB Bucket = "B"
	BucketC Bucket = "C"
	BucketD Bucket = "D"
)

// BucketFor maps a composite score to its letter grade.
// Thresholds are inclusive lower bounds: 80 → A, 79.999 → B.
func BucketFor(total float64) Bucket {
	switch {
	case total >= 80:
		return BucketA
	case total >= 60:
		return BucketB
	case total >= 40:
		return BucketC
	default:
		return BucketD
	}
}

// SubScores holds the four banded components, each in [0,25]
type SubScores struct {
	Performance int `json:"performance"`
	Volatility  int `json:"volatility"`
	Sharpe      int `json:"sharpe"`
	Drawdown    int `json:"drawdown"`
}

// Clamped returns a copy with every component forced into [0,25]
func (s SubScores) Clamped() SubScores {
	return SubScores{
		Performance: clampSub(s.Performance),
		Volatility:  clampSub(s.Volatility),
		Sharpe:      clampSub(s.Sharpe),
		Drawdown:    clampSub(s.Drawdown),
	}
}

// Total is the composite score (0-100)
func (s SubScores) Total() int {
	c := s.Clamped()
	return c.Performance + c.Volatility + c.Sharpe + c.Drawdown
}

func clampSub(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxSubScore {
		return MaxSubScore
	}
	return v
}

// Metrics is the raw snapshot behind the sub-scores
type Metrics struct {
	Return1Y    float64 `json:"return_1y"`    // %
	Volatility  float64 `json:"volatility"`   // annualised %
	SharpeRatio float64 `json:"sharpe_ratio"` // ratio
	MaxDrawdown float64 `json:"max_drawdown"` // positive %
}

// ScoreRecord is one instrument's result inside a scoring run.
// Immutable once written.
type ScoreRecord struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	InstrumentID string    `json:"instrument_id"`
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	SubScores    SubScores `json:"sub_scores"`
	Total        int       `json:"total"`
	Bucket       Bucket    `json:"bucket"`
	Metrics      Metrics   `json:"metrics"`
	RunDate      time.Time `json:"run_date"` // data as-of
}

// NewScoreRecord builds a record whose Total and Bucket are derived from the
// clamped sub-scores, so the two can never disagree.
func NewScoreRecord(runID string, inst Instrument, sub SubScores, m Metrics, asOf time.Time) *ScoreRecord {
	clamped := sub.Clamped()
	total := clamped.Total()
	return &ScoreRecord{
		RunID:        runID,
		InstrumentID: inst.ID,
		Ticker:       inst.Ticker,
		Name:         inst.Name,
		SubScores:    clamped,
		Total:        total,
		Bucket:       BucketFor(float64(total)),
		Metrics:      m,
		RunDate:      asOf,
	}
}
