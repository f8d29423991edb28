package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobKind(t *testing.T) {
	tests := []struct {
		in      string
		want    JobKind
		wantErr bool
	}{
		{"scoring", KindScoring, false},
		{"allocation", KindAllocation, false},
		{"pac", KindAllocation, false},
		{" FULL ", KindFull, false},
		{"", "", true},
		{"rebalance", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseJobKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobKind_Stages(t *testing.T) {
	assert.True(t, KindScoring.RunsScoring())
	assert.False(t, KindScoring.RunsAllocation())

	assert.False(t, KindAllocation.RunsScoring())
	assert.True(t, KindAllocation.RunsAllocation())

	assert.True(t, KindFull.RunsScoring())
	assert.True(t, KindFull.RunsAllocation())
}

func TestRunStatus_CanTransitionTo(t *testing.T) {
	all := []RunStatus{StatusNotStarted, StatusRunning, StatusCompleted, StatusFailed}
	valid := map[[2]RunStatus]bool{
		{StatusNotStarted, StatusRunning}: true,
		{StatusRunning, StatusCompleted}:  true,
		{StatusRunning, StatusFailed}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			want := valid[[2]RunStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestPredecessor(t *testing.T) {
	for _, next := range []RunStatus{StatusRunning, StatusCompleted, StatusFailed} {
		prev, ok := Predecessor(next)
		require.True(t, ok)
		assert.True(t, prev.CanTransitionTo(next))
	}

	_, ok := Predecessor(StatusNotStarted)
	assert.False(t, ok)
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusNotStarted.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
