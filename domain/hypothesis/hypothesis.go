// Package hypothesis defines the hypothesis record handed to the Evaluator
// Agent, the strict decoder for untrusted batches, the validation layer and the
// immutable Batch.
package hypothesis

import (
	"adinsight/domain/signals"
)

// Wire field names. A batch document carries exactly these fields per record.
const (
	FieldID              = "hypothesis_id"
	FieldHypothesis      = "hypothesis"
	FieldReasoning       = "reasoning"
	FieldExpectedSignals = "expected_signals"
	FieldConfidence      = "confidence"
)

// Fields lists the wire fields in document order.
var Fields = []string{FieldID, FieldHypothesis, FieldReasoning, FieldExpectedSignals, FieldConfidence}

// Hypothesis is a single causal claim with its supporting evidence and the
// signals that would corroborate it.
type Hypothesis struct {
	ID              string           `json:"hypothesis_id"`
	Hypothesis      string           `json:"hypothesis"`
	Reasoning       string           `json:"reasoning"`
	ExpectedSignals []signals.Signal `json:"expected_signals"`
	Confidence      float64          `json:"confidence"`
}

// Clone returns a deep copy.
func (h Hypothesis) Clone() Hypothesis {
	out := h
	if h.ExpectedSignals != nil {
		out.ExpectedSignals = append([]signals.Signal(nil), h.ExpectedSignals...)
	}
	return out
}

// HasSignal reports whether s is among the expected signals.
func (h Hypothesis) HasSignal(s signals.Signal) bool {
	for _, e := range h.ExpectedSignals {
		if e == s {
			return true
		}
	}
	return false
}

func cloneAll(hs []Hypothesis) []Hypothesis {
	out := make([]Hypothesis, len(hs))
	for i, h := range hs {
		out[i] = h.Clone()
	}
	return out
}
