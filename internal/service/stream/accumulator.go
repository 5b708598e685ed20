package stream

import (
	"strings"
)

// AnswerAccumulator collects streamed answer deltas into the full answer
// text. Empty deltas are ignored so the accumulated answer is always the
// exact concatenation of the meaningful fragments, in arrival order.
//
// Thread-safety: NOT thread-safe. Used by a single goroutine (AnswerExecutor).
type AnswerAccumulator struct {
	builder strings.Builder
	deltas  int
}

// NewAnswerAccumulator creates an empty accumulator.
func NewAnswerAccumulator() *AnswerAccumulator {
	return &AnswerAccumulator{}
}

// Append adds a delta to the answer. Returns false if the delta was empty
// and did not change the accumulated text.
func (a *AnswerAccumulator) Append(delta string) bool {
	if delta == "" {
		return false
	}
	a.builder.WriteString(delta)
	a.deltas++
	return true
}

// Snapshot returns the answer accumulated so far.
func (a *AnswerAccumulator) Snapshot() string {
	return a.builder.String()
}

// DeltaCount returns how many non-empty deltas have been appended.
func (a *AnswerAccumulator) DeltaCount() int {
	return a.deltas
}

// Len returns the accumulated answer length in bytes.
func (a *AnswerAccumulator) Len() int {
	return a.builder.Len()
}
