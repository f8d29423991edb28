package scoring

// Bands are evaluated top to bottom, first match wins.

// PerformanceBand scores the 1-year return (%)
func PerformanceBand(return1Y float64) int {
	switch {
	case return1Y > 30:
		return 25
	case return1Y > 20:
		return 20
	case return1Y > 10:
		return 15
	case return1Y > 0:
		return 10
	default:
		return 0
	}
}

// VolatilityBand scores annualised volatility (%), lower is better
func VolatilityBand(volatility float64) int {
	switch {
	case volatility < 10:
		return 25
	case volatility < 15:
		return 20
	case volatility < 20:
		return 15
	case volatility < 25:
		return 10
	default:
		return 5
	}
}

// SharpeBand scores the Sharpe ratio
func SharpeBand(sharpe float64) int {
	switch {
	case sharpe > 1.5:
		return 25
	case sharpe > 1.0:
		return 20
	case sharpe > 0.5:
		return 15
	case sharpe > 0:
		return 10
	default:
		return 0
	}
}

// DrawdownBand scores max drawdown (positive %), lower is better
func DrawdownBand(maxDrawdown float64) int {
	switch {
	case maxDrawdown < 10:
		return 25
	case maxDrawdown < 15:
		return 20
	case maxDrawdown < 20:
		return 15
	case maxDrawdown < 25:
		return 10
	default:
		return 5
	}
}
