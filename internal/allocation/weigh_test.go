package allocation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// the fixtures below round with at most one cent of drift in total; equal
// shares that all round the same way are covered by TestWeigh_RoundingDrift
const pctTolerance = 0.01 + 1e-9

func candidates(scores ...int) []contracts.ScoreRecord {
	out := make([]contracts.ScoreRecord, len(scores))
	for i, s := range scores {
		out[i] = contracts.ScoreRecord{
			InstrumentID: fmt.Sprintf("inst-%02d", i),
			Ticker:       fmt.Sprintf("T%02d", i),
			Total:        s,
			Metrics:      contracts.Metrics{Return1Y: float64(s) / 10},
		}
	}
	return out
}

func sumPct(lines []contracts.ProposedLine) float64 {
	var s float64
	for _, l := range lines {
		s += l.AllocationPct
	}
	return s
}

func TestWeigh_PrunesAndRenormalizes(t *testing.T) {
	lines := Weigh(candidates(90, 85, 80, 75, 70, 10, 10, 10, 10, 10), 1000, 5)
	require.Len(t, lines, 5)

	wantPct := []float64{22.5, 21.25, 20, 18.75, 17.5}
	wantAmt := []float64{225, 212.5, 200, 187.5, 175}
	for i, l := range lines {
		assert.Equal(t, fmt.Sprintf("T%02d", i), l.Ticker)
		assert.InDelta(t, wantPct[i], l.AllocationPct, 1e-9)
		assert.InDelta(t, wantAmt[i], l.AllocationAmount, 1e-9)
		assert.GreaterOrEqual(t, l.AllocationPct, 5.0)
	}
	assert.InDelta(t, 100, sumPct(lines), pctTolerance)
	assert.Equal(t, 90, lines[0].Score)
	assert.Equal(t, 9.0, lines[0].Metrics.Return1Y, "metrics copied from the score record")
}

func TestWeigh_SumWithinTolerance(t *testing.T) {
	cases := [][]int{
		{33, 33, 33},
		{71, 64, 59, 58, 41, 40, 39, 22},
		{100},
		{97, 3},
		{55, 55, 54, 54, 53, 52, 51, 50},
	}
	for _, scores := range cases {
		lines := Weigh(candidates(scores...), 777.77, 5)
		require.NotEmpty(t, lines, "%v", scores)

		assert.InDelta(t, 100, sumPct(lines), pctTolerance, "%v", scores)
		for _, l := range lines {
			assert.GreaterOrEqual(t, l.AllocationPct, 5.0)
			assert.Equal(t, l.AllocationPct, math.Round(l.AllocationPct*100)/100)
			assert.Equal(t, l.AllocationAmount, math.Round(l.AllocationAmount*100)/100)
		}
	}
}

func TestWeigh_RoundingDrift(t *testing.T) {
	tests := []struct {
		name      string
		scores    []int
		wantPct   float64
		wantSum   float64
		wantTotal float64
	}{
		{"six equal", []int{50, 50, 50, 50, 50, 50}, 16.67, 100.02, 1000.02},
		{"seven equal", []int{60, 60, 60, 60, 60, 60, 60}, 14.29, 100.03, 1000.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Weigh(candidates(tt.scores...), 1000, 5)
			require.Len(t, lines, len(tt.scores))

			share := 100 / float64(len(tt.scores))
			var total float64
			for _, l := range lines {
				assert.Equal(t, tt.wantPct, l.AllocationPct)
				assert.InDelta(t, share, l.AllocationPct, 0.005+1e-9, "each line within half a cent of its share")
				total += l.AllocationAmount
			}

			// residue is not redistributed
			assert.InDelta(t, tt.wantSum, sumPct(lines), 1e-9)
			assert.InDelta(t, tt.wantTotal, total, 1e-9)
			assert.LessOrEqual(t, math.Abs(sumPct(lines)-100), float64(len(lines))*0.005+1e-9)
		})
	}
}

func TestWeigh_SingleCandidate(t *testing.T) {
	lines := Weigh(candidates(42), 500, 5)
	require.Len(t, lines, 1)
	assert.Equal(t, 100.0, lines[0].AllocationPct)
	assert.Equal(t, 500.0, lines[0].AllocationAmount)
}

func TestWeigh_NothingSurvives(t *testing.T) {
	assert.Nil(t, Weigh(nil, 500, 5))
	assert.Nil(t, Weigh(candidates(0, 0, 0), 500, 5), "zero scores")
	assert.Nil(t, Weigh(candidates(50, 50), 500, 60), "threshold above every share")
}

func TestWeigh_ZeroThresholdKeepsEverything(t *testing.T) {
	lines := Weigh(candidates(90, 1), 1000, 0)
	require.Len(t, lines, 2)
	assert.InDelta(t, 98.9, lines[0].AllocationPct, 0.01)
	assert.InDelta(t, 1.1, lines[1].AllocationPct, 0.01)
}

func TestNormalize_Idempotent(t *testing.T) {
	once := normalize([]float64{20, 18.888, 17.777, 16.666, 15.555})
	twice := normalize(once)

	var sum float64
	for i := range once {
		assert.InDelta(t, once[i], twice[i], 1e-9)
		sum += once[i]
	}
	assert.InDelta(t, 100, sum, 1e-9)

	assert.Equal(t, []float64{0, 0}, normalize([]float64{0, 0}))
}
