package hypothesis

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"adinsight/domain/core"
	"adinsight/domain/signals"

	"github.com/google/go-cmp/cmp"
)

func valid(id string) Hypothesis {
	return Hypothesis{
		ID:              id,
		Hypothesis:      "ROAS fell because spend scaled into lower-return inventory.",
		Reasoning:       "ROAS moved from 2.10 to 1.20 while spend rose 30%.",
		ExpectedSignals: []signals.Signal{signals.ROASDown, signals.SpendUp},
		Confidence:      0.7,
	}
}

func codesOf(err error) []string {
	var ce *ContractError
	if !errors.As(err, &ce) {
		return nil
	}
	out := make([]string, len(ce.Violations))
	for i, v := range ce.Violations {
		out[i] = v.Code
	}
	return out
}

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantCodes []string
		wantLen   int
	}{
		{
			name:    "valid batch",
			doc:     `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"],"confidence":0.5}]`,
			wantLen: 1,
		},
		{
			name:    "empty array",
			doc:     " [] \n",
			wantLen: 0,
		},
		{
			name:      "wrapping object",
			doc:       `{"hypotheses":[]}`,
			wantCodes: []string{CodeNotArray},
		},
		{
			name:      "empty document",
			doc:       "   ",
			wantCodes: []string{CodeMalformedDocument},
		},
		{
			name:      "truncated",
			doc:       `[{"hypothesis_id":"h1"`,
			wantCodes: []string{CodeMalformedDocument},
		},
		{
			name:      "null element",
			doc:       `[null]`,
			wantCodes: []string{CodeNullRecord},
		},
		{
			name:      "scalar element",
			doc:       `["h1"]`,
			wantCodes: []string{CodeNotObject},
		},
		{
			name:      "missing confidence",
			doc:       `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"]}]`,
			wantCodes: []string{CodeMissingField},
		},
		{
			name:      "unknown field and null field",
			doc:       `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":null,"expected_signals":["roas_down"],"confidence":0.5,"verdict":"ok"}]`,
			wantCodes: []string{CodeUnknownField, CodeNullField},
		},
		{
			name:      "case mismatched field is unknown",
			doc:       `[{"Hypothesis_ID":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"],"confidence":0.5}]`,
			wantCodes: []string{CodeMissingField, CodeUnknownField},
		},
		{
			name:      "confidence as string",
			doc:       `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"],"confidence":"high"}]`,
			wantCodes: []string{CodeTypeMismatch},
		},
		{
			name:      "repeated key",
			doc:       `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"],"confidence":2,"confidence":0.5}]`,
			wantCodes: []string{CodeDuplicateField},
		},
		{
			name: "violations across records are all collected",
			doc: `[{"hypothesis_id":"h1","hypothesis":"a","reasoning":"b","expected_signals":["roas_down"],"confidence":0.5},
				null,
				{"hypothesis_id":"h3","hypothesis":"a","reasoning":"b","expected_signals":"roas_down","confidence":0.5}]`,
			wantCodes: []string{CodeNullRecord, CodeTypeMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs, err := DecodeBatch([]byte(tt.doc))
			if tt.wantCodes == nil {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if len(hs) != tt.wantLen {
					t.Errorf("Expected %d records, got %d", tt.wantLen, len(hs))
				}
				return
			}
			if !errors.Is(err, core.ErrOutputContract) {
				t.Fatalf("Expected output contract error, got %v", err)
			}
			if hs != nil {
				t.Errorf("Expected no records on failure, got %d", len(hs))
			}
			if diff := cmp.Diff(tt.wantCodes, codesOf(err)); diff != "" {
				t.Errorf("Violation codes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeBatchNamesRecord(t *testing.T) {
	_, err := DecodeBatch([]byte(`[{"hypothesis_id":"h_ctr","hypothesis":"a","reasoning":"b","expected_signals":["ctr_down"]}]`))
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ContractError, got %v", err)
	}
	want := []Violation{{Index: 0, HypothesisID: "h_ctr", Field: FieldConfidence, Code: CodeMissingField, Message: "field is required"}}
	if diff := cmp.Diff(want, ce.Violations); diff != "" {
		t.Errorf("Violations mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatorRejects(t *testing.T) {
	mutate := func(f func(h *Hypothesis)) []Hypothesis {
		h := valid("h1")
		f(&h)
		return []Hypothesis{h}
	}

	tests := []struct {
		name      string
		batch     []Hypothesis
		wantCodes []string
	}{
		{"empty id", mutate(func(h *Hypothesis) { h.ID = "  " }), []string{CodeEmptyID}},
		{"duplicate id", []Hypothesis{valid("h1"), valid("h1")}, []string{CodeDuplicateID}},
		{"padded id", mutate(func(h *Hypothesis) { h.ID = "h1 " }), []string{CodePaddedID}},
		{"duplicate id after trimming", []Hypothesis{valid("h1"), valid("h1 ")}, []string{CodePaddedID, CodeDuplicateID}},
		{"empty hypothesis", mutate(func(h *Hypothesis) { h.Hypothesis = "" }), []string{CodeEmptyHypothesis}},
		{"two sentences", mutate(func(h *Hypothesis) {
			h.Hypothesis = "ROAS fell because of spend. CTR also fell because of fatigue."
		}), []string{CodeMultipleClaims}},
		{"semicolon", mutate(func(h *Hypothesis) {
			h.Hypothesis = "ROAS fell because of spend; CTR fell because of fatigue"
		}), []string{CodeMultipleClaims}},
		{"bullet list", mutate(func(h *Hypothesis) {
			h.Hypothesis = "- spend scaled\n- creatives fatigued"
		}), []string{CodeMultipleClaims}},
		{"claims validation", mutate(func(h *Hypothesis) {
			h.Hypothesis = "Creative fatigue is confirmed as the cause of the CTR drop."
		}), []string{CodeValidationClaim}},
		{"reasoning claims validation outside quotes", mutate(func(h *Hypothesis) {
			h.Reasoning = `The "Summer Sale" message was verified as the driver.`
		}), []string{CodeValidationClaim}},
		{"empty reasoning", mutate(func(h *Hypothesis) { h.Reasoning = "\t" }), []string{CodeEmptyReasoning}},
		{"no signals", mutate(func(h *Hypothesis) { h.ExpectedSignals = nil }), []string{CodeEmptySignals}},
		{"duplicate signal", mutate(func(h *Hypothesis) {
			h.ExpectedSignals = []signals.Signal{signals.ROASDown, signals.ROASDown}
		}), []string{CodeDuplicateSignal}},
		{"invented signal", mutate(func(h *Hypothesis) {
			h.ExpectedSignals = []signals.Signal{signals.ROASDown, "roas_vibes_off"}
		}), []string{CodeUnknownSignal}},
		{"confidence above one", mutate(func(h *Hypothesis) { h.Confidence = 1.01 }), []string{CodeConfidenceRange}},
		{"negative confidence", mutate(func(h *Hypothesis) { h.Confidence = -0.1 }), []string{CodeConfidenceRange}},
		{"NaN confidence", mutate(func(h *Hypothesis) { h.Confidence = math.NaN() }), []string{CodeConfidenceRange}},
		{"infinite confidence", mutate(func(h *Hypothesis) { h.Confidence = math.Inf(1) }), []string{CodeConfidenceRange}},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.batch)
			if !errors.Is(err, core.ErrOutputContract) {
				t.Fatalf("Expected output contract error, got %v", err)
			}
			if diff := cmp.Diff(tt.wantCodes, codesOf(err)); diff != "" {
				t.Errorf("Violation codes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidatorAcceptsBoundaries(t *testing.T) {
	zero, one := valid("h_zero"), valid("h_one")
	zero.Confidence, one.Confidence = 0, 1
	abbrev := valid("h_decimal")
	abbrev.Hypothesis = "ROAS fell from 2.1 to 1.2 because spend scaled into weaker inventory."

	quoted := valid("h_quoted_name")
	quoted.Hypothesis = `The "Proven Results" message no longer matches what the audience responds to.`
	quoted.Reasoning = `Campaign "Verified Buyers Retargeting" CTR fell from 2.00% to 1.00%.`

	v := NewValidator(signals.Default())
	if err := v.Validate([]Hypothesis{zero, one, abbrev, quoted}); err != nil {
		t.Fatalf("Expected batch to be accepted, got %v", err)
	}
	if err := v.Validate(nil); err != nil {
		t.Errorf("Expected empty batch to be accepted, got %v", err)
	}
}

func TestValidatorIsDeterministic(t *testing.T) {
	batch := []Hypothesis{valid("h1"), valid("h1"), valid("")}
	batch[2].ExpectedSignals = []signals.Signal{"nope"}
	batch[2].Confidence = 2

	v := NewValidator(nil)
	first, second := v.Check(batch), v.Check(batch)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Validation not deterministic (-first +second):\n%s", diff)
	}
	if len(first) != 4 {
		t.Errorf("Expected 4 violations, got %v", first)
	}
	if !errors.Is(v.Validate(batch), core.ErrUnknownSignal) {
		t.Error("Expected unknown signal to be matchable with errors.Is")
	}
}

func TestValidatorUsesVocabularyVersion(t *testing.T) {
	vocab, err := signals.New("v2", []signals.Entry{{Name: "roas_down"}})
	if err != nil {
		t.Fatal(err)
	}
	err = NewValidator(vocab).Validate([]Hypothesis{valid("h1")})
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ContractError, got %v", err)
	}
	if ce.Violations[0].Field != "expected_signals[1]" {
		t.Errorf("Expected violation on expected_signals[1], got %+v", ce.Violations[0])
	}
}

func TestBatchImmutableAndWireForm(t *testing.T) {
	in := []Hypothesis{valid("h1")}
	b := NewBatch("summary-1", signals.DefaultVersion, in)

	in[0].ID = "mutated"
	in[0].ExpectedSignals[0] = "mutated"
	got := b.Hypotheses()
	got[0].Confidence = 0.01

	if diff := cmp.Diff([]Hypothesis{valid("h1")}, b.Hypotheses()); diff != "" {
		t.Errorf("Batch changed after construction (-want +got):\n%s", diff)
	}
	if _, err := core.ParseBatchID(b.ID().String()); err != nil {
		t.Errorf("Batch ID is not a UUID: %v", err)
	}

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeBatch(raw)
	if err != nil {
		t.Fatalf("Batch wire form rejected by strict decoder: %v", err)
	}
	if diff := cmp.Diff(b.Hypotheses(), decoded); diff != "" {
		t.Errorf("Wire round trip mismatch (-want +got):\n%s", diff)
	}

	empty, err := json.Marshal(NewBatch("", signals.DefaultVersion, nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != "[]" {
		t.Errorf("Expected empty batch to marshal as [], got %s", empty)
	}
}
