package hypothesis

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"adinsight/domain/signals"
)

var (
	// A sentence terminator followed by a new capitalised sentence.
	sentenceBreak = regexp.MustCompile(`[.!?]\s+[A-Z]`)
	listMarker    = regexp.MustCompile(`(?m)^\s*(?:[-*\x{2022}]|\d+[.)])\s+`)
	// Generators state priors; they never report validation outcomes.
	validationWords = regexp.MustCompile(`(?i)\b(confirmed|validated|proven|verified)\b`)
	// Quoted spans carry names from the summary, e.g. a "Proven Results" message.
	quotedSpan = regexp.MustCompile(`"[^"\n]*"`)
)

// Validator applies the output contract to a batch.
type Validator struct {
	vocab *signals.Vocabulary
}

// NewValidator returns a validator bound to vocab. A nil vocab selects the
// built-in vocabulary.
func NewValidator(vocab *signals.Vocabulary) *Validator {
	if vocab == nil {
		vocab = signals.Default()
	}
	return &Validator{vocab: vocab}
}

// Vocabulary returns the vocabulary the validator checks against.
func (v *Validator) Vocabulary() *signals.Vocabulary { return v.vocab }

// Validate returns nil when every record satisfies the contract, otherwise a
// *ContractError listing every violation in record order. No record is
// repaired or dropped.
func (v *Validator) Validate(hs []Hypothesis) error {
	return contractError(v.Check(hs))
}

// Check returns every violation in record order.
func (v *Validator) Check(hs []Hypothesis) []Violation {
	var vs []Violation
	seenIDs := make(map[string]int, len(hs))

	for i, h := range hs {
		add := func(field, code, msg string) {
			vs = append(vs, Violation{Index: i, HypothesisID: h.ID, Field: field, Code: code, Message: msg})
		}

		id := strings.TrimSpace(h.ID)
		switch {
		case id == "":
			add(FieldID, CodeEmptyID, "hypothesis_id must not be empty")
		default:
			if id != h.ID {
				add(FieldID, CodePaddedID, fmt.Sprintf("hypothesis_id %q has leading or trailing whitespace", h.ID))
			}
			if first, dup := seenIDs[id]; dup {
				add(FieldID, CodeDuplicateID, fmt.Sprintf("hypothesis_id %q already used by record %d", id, first))
			} else {
				seenIDs[id] = i
			}
		}

		claim := strings.TrimSpace(h.Hypothesis)
		if claim == "" {
			add(FieldHypothesis, CodeEmptyHypothesis, "hypothesis must not be empty")
		} else {
			if reason := multipleClaims(claim); reason != "" {
				add(FieldHypothesis, CodeMultipleClaims, reason)
			}
			if w := validationClaim(claim); w != "" {
				add(FieldHypothesis, CodeValidationClaim, fmt.Sprintf("hypothesis claims a validation outcome (%q)", w))
			}
		}

		reasoning := strings.TrimSpace(h.Reasoning)
		if reasoning == "" {
			add(FieldReasoning, CodeEmptyReasoning, "reasoning must not be empty")
		} else if w := validationClaim(reasoning); w != "" {
			add(FieldReasoning, CodeValidationClaim, fmt.Sprintf("reasoning claims a validation outcome (%q)", w))
		}

		if len(h.ExpectedSignals) == 0 {
			add(FieldExpectedSignals, CodeEmptySignals, "expected_signals must not be empty")
		}
		seenSignals := make(map[signals.Signal]bool, len(h.ExpectedSignals))
		for j, s := range h.ExpectedSignals {
			field := fmt.Sprintf("%s[%d]", FieldExpectedSignals, j)
			if seenSignals[s] {
				add(field, CodeDuplicateSignal, fmt.Sprintf("signal %q listed more than once", s))
				continue
			}
			seenSignals[s] = true
			if !v.vocab.Contains(s) {
				add(field, CodeUnknownSignal, fmt.Sprintf("signal %q is not in vocabulary %s", s, v.vocab.Version()))
			}
		}

		c := h.Confidence
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 || c > 1 {
			add(FieldConfidence, CodeConfidenceRange, fmt.Sprintf("confidence %v is outside [0, 1]", c))
		}
	}
	return vs
}

// validationClaim returns the first validation word outside quoted spans.
func validationClaim(text string) string {
	return validationWords.FindString(quotedSpan.ReplaceAllString(text, `""`))
}

func multipleClaims(claim string) string {
	switch {
	case strings.Contains(claim, "\n"):
		if listMarker.MatchString(claim) {
			return "hypothesis is a list of claims"
		}
		return "hypothesis spans multiple lines"
	case listMarker.MatchString(claim):
		return "hypothesis is a list of claims"
	case strings.Contains(claim, ";"):
		return "hypothesis joins clauses with a semicolon"
	case sentenceBreak.MatchString(claim):
		return "hypothesis contains more than one sentence"
	}
	return ""
}
