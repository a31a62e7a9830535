package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide_LastWriteWins(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		local    string
		want     Decision
	}{
		{
			name:     "incoming newer applies",
			incoming: "2025-01-15 10:30:00.000000",
			local:    "2025-01-15 10:29:59.999999",
			want:     DecisionApply,
		},
		{
			name:     "incoming older is skipped",
			incoming: "2025-01-15 10:29:59.999999",
			local:    "2025-01-15 10:30:00.000000",
			want:     DecisionSkip,
		},
		{
			name:     "equal timestamps apply for idempotence",
			incoming: "2025-01-15 10:30:00.000000",
			local:    "2025-01-15 10:30:00.000000",
			want:     DecisionApply,
		},
		{
			name:     "microsecond difference decides",
			incoming: "2025-01-15 10:30:00.000002",
			local:    "2025-01-15 10:30:00.000001",
			want:     DecisionApply,
		},
		{
			name:     "date boundary compares correctly",
			incoming: "2025-02-01 00:00:00.000000",
			local:    "2025-01-31 23:59:59.999999",
			want:     DecisionApply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(StrategyLastWriteWins, tt.incoming, tt.local)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_SkipStrategyNeverApplies(t *testing.T) {
	got := Decide(StrategySkip, "2025-01-15 10:30:00.000000", "2024-01-01 00:00:00.000000")
	assert.Equal(t, DecisionSkip, got)
}

func TestDecide_UnknownStrategyDefaultsToLastWriteWins(t *testing.T) {
	assert.Equal(t, DecisionApply,
		Decide(ConflictStrategy("Merge"), "2025-01-15 10:30:00.000000", "2025-01-15 10:00:00.000000"))
	assert.Equal(t, DecisionSkip,
		Decide(ConflictStrategy(""), "2025-01-15 10:00:00.000000", "2025-01-15 10:30:00.000000"))
}
