package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises daily statistics
const TradingDaysPerYear = 252

// DailyReturns converts closes to close-to-close fractional changes.
// The first bar contributes no point.
func DailyReturns(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return []float64{}, nil
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 || math.IsNaN(prev) || math.IsNaN(closes[i]) {
			return nil, fmt.Errorf("invalid close %v at index %d", prev, i-1)
		}
		returns[i-1] = closes[i]/prev - 1
	}
	return returns, nil
}

// SimpleReturnPct is (last / first - 1) * 100
func SimpleReturnPct(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}
	return (closes[len(closes)-1]/closes[0] - 1) * 100
}

// AnnualizedVolatilityPct is the sample std dev of daily returns × √252 × 100
func AnnualizedVolatilityPct(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear) * 100
}

// SharpeRatio is (mean × 252 − rf) / (σ × √252).
// A flat series (σ = 0) has no defined ratio and scores 0.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	excess := mean*TradingDaysPerYear - riskFreeRate
	return excess / (std * math.Sqrt(TradingDaysPerYear))
}

// MaxDrawdownPct walks the compounded return curve keeping a running peak and
// returns the deepest decline as a positive percentage.
func MaxDrawdownPct(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	peak := math.Inf(-1)
	worst := 0.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (cumulative - peak) / peak; dd < worst {
			worst = dd
		}
	}

	return math.Abs(worst) * 100
}

// round2 rounds half away from zero to 2 decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
