package stream

import (
	"testing"
)

func TestAnswerAccumulator(t *testing.T) {
	tests := []struct {
		name       string
		deltas     []string
		wantAnswer string
		wantCount  int
	}{
		{
			name:       "empty stream",
			deltas:     nil,
			wantAnswer: "",
			wantCount:  0,
		},
		{
			name:       "single delta",
			deltas:     []string{"IBS is a condition."},
			wantAnswer: "IBS is a condition.",
			wantCount:  1,
		},
		{
			name:       "fragments concatenate in order",
			deltas:     []string{"IBS ", "is a ", "condition."},
			wantAnswer: "IBS is a condition.",
			wantCount:  3,
		},
		{
			name:       "empty deltas are ignored",
			deltas:     []string{"", "IBS ", "", "is a ", "condition.", ""},
			wantAnswer: "IBS is a condition.",
			wantCount:  3,
		},
		{
			name:       "whitespace-only deltas are kept",
			deltas:     []string{"a", " ", "b"},
			wantAnswer: "a b",
			wantCount:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAnswerAccumulator()
			for _, d := range tt.deltas {
				acc.Append(d)
			}

			if got := acc.Snapshot(); got != tt.wantAnswer {
				t.Errorf("Snapshot() = %q, want %q", got, tt.wantAnswer)
			}
			if got := acc.DeltaCount(); got != tt.wantCount {
				t.Errorf("DeltaCount() = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestAnswerAccumulatorSnapshotIsStable(t *testing.T) {
	acc := NewAnswerAccumulator()
	acc.Append("partial ")

	first := acc.Snapshot()
	acc.Append("answer")

	if first != "partial " {
		t.Errorf("earlier snapshot changed: %q", first)
	}
	if got := acc.Snapshot(); got != "partial answer" {
		t.Errorf("Snapshot() = %q, want %q", got, "partial answer")
	}
}
