package hypothesis

import (
	"fmt"
	"strings"

	"adinsight/domain/core"
)

// Violation codes.
const (
	CodeMalformedDocument = "malformed_document"
	CodeNotArray          = "not_array"
	CodeNullRecord        = "null_record"
	CodeNotObject         = "not_object"
	CodeUnknownField      = "unknown_field"
	CodeMissingField      = "missing_field"
	CodeNullField         = "null_field"
	CodeTypeMismatch      = "type_mismatch"
	CodeDuplicateField    = "duplicate_field"
	CodeEmptyID           = "empty_id"
	CodeDuplicateID       = "duplicate_id"
	CodePaddedID          = "padded_id"
	CodeEmptyHypothesis   = "empty_hypothesis"
	CodeMultipleClaims    = "multiple_claims"
	CodeValidationClaim   = "validation_claim"
	CodeEmptyReasoning    = "empty_reasoning"
	CodeEmptySignals      = "empty_signals"
	CodeDuplicateSignal   = "duplicate_signal"
	CodeUnknownSignal     = "unknown_signal"
	CodeConfidenceRange   = "confidence_out_of_range"
)

// DocumentIndex marks a violation that concerns the document as a whole.
const DocumentIndex = -1

// Violation is one contract breach. Index refers to the record position in
// the batch, or DocumentIndex.
type Violation struct {
	Index        int    `json:"index"`
	HypothesisID string `json:"hypothesis_id,omitempty"`
	Field        string `json:"field,omitempty"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Index == DocumentIndex {
		b.WriteString("document")
	} else {
		fmt.Fprintf(&b, "[%d]", v.Index)
	}
	if v.Field != "" {
		b.WriteString(".")
		b.WriteString(v.Field)
	}
	fmt.Fprintf(&b, ": %s (%s)", v.Message, v.Code)
	return b.String()
}

// ContractError rejects a whole batch. It matches core.ErrOutputContract, and
// core.ErrUnknownSignal when any signal fell outside the vocabulary.
type ContractError struct {
	Violations []Violation
}

func (e *ContractError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %d violation(s): %s", core.ErrOutputContract, len(e.Violations), strings.Join(parts, "; "))
}

func (e *ContractError) Unwrap() []error {
	errs := []error{core.ErrOutputContract}
	for _, v := range e.Violations {
		if v.Code == CodeUnknownSignal {
			errs = append(errs, core.ErrUnknownSignal)
			break
		}
	}
	return errs
}

// Codes returns the distinct violation codes in first-seen order.
func (e *ContractError) Codes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Code] {
			seen[v.Code] = true
			out = append(out, v.Code)
		}
	}
	return out
}

func contractError(vs []Violation) error {
	if len(vs) == 0 {
		return nil
	}
	return &ContractError{Violations: vs}
}
