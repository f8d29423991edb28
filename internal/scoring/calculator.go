package scoring

import (
	"fmt"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// DefaultMinBars is the shortest series the engine will score
const DefaultMinBars = 200

// DefaultRiskFreeRate is the annual rate used by the Sharpe sub-score
const DefaultRiskFreeRate = 0.04

// Calculate derives the four sub-scores and the metrics snapshot from one
// instrument's ascending daily series.
// ⭐ SSOT: ETF 점수 계산은 여기서만
func Calculate(bars []contracts.PriceBar, minBars int, riskFreeRate float64) (contracts.SubScores, contracts.Metrics, error) {
	if minBars < 2 {
		minBars = 2
	}
	if len(bars) < minBars {
		return contracts.SubScores{}, contracts.Metrics{},
			fmt.Errorf("%w: %d bars, need %d", contracts.ErrInsufficientData, len(bars), minBars)
	}

	closes := contracts.Closes(bars)
	returns, err := DailyReturns(closes)
	if err != nil {
		return contracts.SubScores{}, contracts.Metrics{}, fmt.Errorf("daily returns: %w", err)
	}

	ret1Y := SimpleReturnPct(closes)
	vol := AnnualizedVolatilityPct(returns)
	sharpe := SharpeRatio(returns, riskFreeRate)
	maxDD := MaxDrawdownPct(returns)

	sub := contracts.SubScores{
		Performance: PerformanceBand(ret1Y),
		Volatility:  VolatilityBand(vol),
		Sharpe:      SharpeBand(sharpe),
		Drawdown:    DrawdownBand(maxDD),
	}

	metrics := contracts.Metrics{
		Return1Y:    round2(ret1Y),
		Volatility:  round2(vol),
		SharpeRatio: round2(sharpe),
		MaxDrawdown: round2(maxDD),
	}

	return sub.Clamped(), metrics, nil
}
