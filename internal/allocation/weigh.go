package allocation

import (
	"math"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// Weigh splits contribution across candidates in proportion to their total
// score. Candidates below minPct of the raw split are dropped, survivors are
// rescaled to 100% and both percentage and amount are rounded to cents last.
// Rounding residue is not redistributed: each line is within 0.005 of its
// unrounded share, so n lines may sum to 100 ± n×0.005.
//
// Returns nil when no candidate survives or the scores sum to zero.
func Weigh(candidates []contracts.ScoreRecord, contribution, minPct float64) []contracts.ProposedLine {
	var scoreSum float64
	for _, c := range candidates {
		scoreSum += float64(c.Total)
	}
	if scoreSum <= 0 {
		return nil
	}

	var (
		survivors []contracts.ScoreRecord
		rawPcts   []float64
	)
	for _, c := range candidates {
		raw := float64(c.Total) / scoreSum * 100
		if raw < minPct {
			continue
		}
		survivors = append(survivors, c)
		rawPcts = append(rawPcts, raw)
	}
	if len(survivors) == 0 {
		return nil
	}

	pcts := normalize(rawPcts)
	lines := make([]contracts.ProposedLine, 0, len(survivors))
	for i, rec := range survivors {
		lines = append(lines, contracts.ProposedLine{
			InstrumentID:     rec.InstrumentID,
			Ticker:           rec.Ticker,
			Name:             rec.Name,
			AllocationPct:    round2(pcts[i]),
			AllocationAmount: round2(pcts[i] / 100 * contribution),
			Score:            rec.Total,
			Metrics:          rec.Metrics,
		})
	}
	return lines
}

// normalize rescales positive values so they sum to 100
func normalize(values []float64) []float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	if sum <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / sum * 100
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
