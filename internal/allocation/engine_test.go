package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/logger"
)

type fakeScores struct {
	records  []contracts.ScoreRecord
	err      error
	gotLimit int
}

func (f *fakeScores) CreateScoringRun(context.Context, string, time.Time) error { return nil }

func (f *fakeScores) SaveScore(context.Context, *contracts.ScoreRecord) error { return nil }

func (f *fakeScores) TopByRun(_ context.Context, _ string, limit int) ([]contracts.ScoreRecord, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakePolicies struct {
	policy *contracts.ContributionPolicy
	err    error
}

func (f *fakePolicies) ActivePolicy(context.Context, string) (*contracts.ContributionPolicy, error) {
	return f.policy, f.err
}

type fakeProposals struct {
	saved []*contracts.AllocationProposal
	err   error
}

func (f *fakeProposals) SaveProposal(_ context.Context, p *contracts.AllocationProposal) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

func newTestEngine(scores *fakeScores, policies *fakePolicies, proposals *fakeProposals) *Engine {
	e := NewEngine(scores, policies, proposals, Params{MaxInstruments: 8, MinAllocationPct: 5}, logger.NewNop())
	e.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestEngineRun_DefaultPolicy(t *testing.T) {
	scores := &fakeScores{records: candidates(80, 60, 40)}
	proposals := &fakeProposals{}

	p, err := newTestEngine(scores, &fakePolicies{}, proposals).Run(context.Background(), "run-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, 500.0, p.MonthlyContribution)
	assert.Equal(t, map[string]float64{"equity": 80, "bonds": 20, "cash": 0}, p.TargetAllocation)
	assert.Equal(t, contracts.ProposalPending, p.Status)
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, "user-1", p.UserID)
	assert.NotEmpty(t, p.ID)
	assert.InDelta(t, 100, p.TotalPct(), pctTolerance)
	assert.InDelta(t, 500, p.TotalAmount(), 0.01)

	require.Len(t, proposals.saved, 1)
	assert.Same(t, p, proposals.saved[0])
}

func TestEngineRun_ActivePolicy(t *testing.T) {
	policy := &contracts.ContributionPolicy{
		UserID:              "user-1",
		VersionID:           "v-3",
		MonthlyContribution: 1000,
		TargetAllocation:    map[string]float64{"equity": 60, "bonds": 40},
	}
	scores := &fakeScores{records: candidates(90, 85, 80, 75, 70, 10, 10, 10, 10, 10)}
	proposals := &fakeProposals{}

	p, err := newTestEngine(scores, &fakePolicies{policy: policy}, proposals).Run(context.Background(), "run-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, 8, scores.gotLimit)
	assert.Equal(t, 1000.0, p.MonthlyContribution)
	assert.Equal(t, policy.TargetAllocation, p.TargetAllocation)
	// top 8 of the run: five strong + three of the 10s, the 10s are pruned
	assert.Len(t, p.Lines, 5)
	assert.InDelta(t, 100, p.TotalPct(), pctTolerance)
}

func TestEngineRun_NoScoringResults(t *testing.T) {
	proposals := &fakeProposals{}

	p, err := newTestEngine(&fakeScores{}, &fakePolicies{}, proposals).Run(context.Background(), "run-1", "user-1")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, contracts.ErrNoScoringResults)
	assert.Empty(t, proposals.saved)
}

func TestEngineRun_NothingToAllocate(t *testing.T) {
	proposals := &fakeProposals{}

	p, err := newTestEngine(&fakeScores{records: candidates(0, 0)}, &fakePolicies{}, proposals).Run(context.Background(), "run-1", "user-1")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, contracts.ErrNothingToAllocate)
	assert.Empty(t, proposals.saved)
}

func TestEngineRun_Failures(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name      string
		scores    *fakeScores
		policies  *fakePolicies
		proposals *fakeProposals
	}{
		{"policy lookup", &fakeScores{records: candidates(50)}, &fakePolicies{err: boom}, &fakeProposals{}},
		{"score query", &fakeScores{err: boom}, &fakePolicies{}, &fakeProposals{}},
		{"save", &fakeScores{records: candidates(50)}, &fakePolicies{}, &fakeProposals{err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newTestEngine(tt.scores, tt.policies, tt.proposals).Run(context.Background(), "run-1", "user-1")
			assert.Nil(t, p)
			assert.ErrorIs(t, err, boom)
			assert.NotErrorIs(t, err, contracts.ErrNoScoringResults)
			assert.Empty(t, tt.proposals.saved)
		})
	}
}

func TestDecodePolicy(t *testing.T) {
	p, err := decodePolicy("u", "v1", []byte(`{"monthlyContribution": 750, "assetAllocation": {"equity": 70, "bonds": 30}}`))
	require.NoError(t, err)
	assert.Equal(t, 750.0, p.MonthlyContribution)
	assert.Equal(t, map[string]float64{"equity": 70, "bonds": 30}, p.TargetAllocation)
	assert.False(t, p.IsDefault())

	p, err = decodePolicy("u", "v2", []byte(`{"riskProfile": "moderate"}`))
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultMonthlyContribution, p.MonthlyContribution)
	assert.Equal(t, contracts.DefaultTargetAllocation(), p.TargetAllocation)

	_, err = decodePolicy("u", "v3", []byte(`{broken`))
	assert.Error(t, err)
}
