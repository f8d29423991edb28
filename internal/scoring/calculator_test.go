package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurora/engine/internal/contracts"
)

func TestCalculate_InsufficientData(t *testing.T) {
	for _, n := range []int{0, 1, 150, 199} {
		_, _, err := Calculate(risingBars(n), DefaultMinBars, DefaultRiskFreeRate)
		assert.True(t, errors.Is(err, contracts.ErrInsufficientData), "n=%d err=%v", n, err)
	}
}

func TestCalculate_RisingSeries(t *testing.T) {
	sub, metrics, err := Calculate(risingBars(250), DefaultMinBars, DefaultRiskFreeRate)
	require.NoError(t, err)

	// ~+64% with ~16% volatility, no meaningful drawdown
	assert.Equal(t, 25, sub.Performance)
	assert.Equal(t, 15, sub.Volatility)
	assert.Equal(t, 25, sub.Sharpe)
	assert.Equal(t, 25, sub.Drawdown)
	assert.Equal(t, 90, sub.Total())
	assert.Equal(t, contracts.BucketA, contracts.BucketFor(float64(sub.Total())))

	assert.Greater(t, metrics.Return1Y, 30.0)
	assert.InDelta(t, 15.9, metrics.Volatility, 0.2)
	assert.Greater(t, metrics.SharpeRatio, 1.5)
	assert.InDelta(t, 0.8, metrics.MaxDrawdown, 0.01)
}

func TestCalculate_FallingSeries(t *testing.T) {
	sub, metrics, err := Calculate(fallingBars(250), DefaultMinBars, DefaultRiskFreeRate)
	require.NoError(t, err)

	assert.Equal(t, 0, sub.Performance)
	assert.Equal(t, 0, sub.Sharpe)
	assert.Equal(t, 5, sub.Drawdown)
	assert.Less(t, metrics.Return1Y, 0.0)
	assert.Greater(t, metrics.MaxDrawdown, 25.0)
	assert.Equal(t, contracts.BucketD, contracts.BucketFor(float64(sub.Total())))
}

func TestCalculate_SubScoresBounded(t *testing.T) {
	series := [][]contracts.PriceBar{
		risingBars(200),
		fallingBars(300),
		alternatingBars(220, 50, 0.05, -0.045),
		alternatingBars(220, 50, 0.0001, -0.0001),
	}

	for i, bars := range series {
		sub, _, err := Calculate(bars, DefaultMinBars, DefaultRiskFreeRate)
		require.NoError(t, err, "series %d", i)

		for _, v := range []int{sub.Performance, sub.Volatility, sub.Sharpe, sub.Drawdown} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, contracts.MaxSubScore)
		}
		total := sub.Total()
		assert.Equal(t, sub.Performance+sub.Volatility+sub.Sharpe+sub.Drawdown, total)
		assert.GreaterOrEqual(t, total, 0)
		assert.LessOrEqual(t, total, 100)
	}
}

func TestCalculate_InvalidClose(t *testing.T) {
	bars := risingBars(210)
	bars[100].Close = 0

	_, _, err := Calculate(bars, DefaultMinBars, DefaultRiskFreeRate)
	require.Error(t, err)
	assert.False(t, errors.Is(err, contracts.ErrInsufficientData))
}
