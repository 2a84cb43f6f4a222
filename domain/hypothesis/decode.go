package hypothesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"adinsight/domain/signals"
)

var knownFields = map[string]bool{
	FieldID:              true,
	FieldHypothesis:      true,
	FieldReasoning:       true,
	FieldExpectedSignals: true,
	FieldConfidence:      true,
}

var jsonNull = []byte("null")

// DecodeBatch parses an untrusted batch document. The root must be a JSON
// array of objects carrying exactly the wire fields, matched case-sensitively.
// Every structural problem is collected into a *ContractError; records are
// only returned when the whole document is well formed.
func DecodeBatch(raw []byte) ([]Hypothesis, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 {
		return nil, contractError([]Violation{docViolation(CodeMalformedDocument, "document is empty")})
	}
	if doc[0] != '[' {
		return nil, contractError([]Violation{docViolation(CodeNotArray, "document root must be a JSON array")})
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(doc, &elems); err != nil {
		return nil, contractError([]Violation{docViolation(CodeMalformedDocument, err.Error())})
	}

	out := make([]Hypothesis, 0, len(elems))
	var vs []Violation
	for i, el := range elems {
		h, recordViolations := decodeRecord(i, el)
		vs = append(vs, recordViolations...)
		out = append(out, h)
	}
	if len(vs) > 0 {
		return nil, contractError(vs)
	}
	return out, nil
}

func docViolation(code, msg string) Violation {
	return Violation{Index: DocumentIndex, Code: code, Message: msg}
}

func decodeRecord(i int, el json.RawMessage) (Hypothesis, []Violation) {
	var h Hypothesis
	el = bytes.TrimSpace(el)
	if bytes.Equal(el, jsonNull) {
		return h, []Violation{{Index: i, Code: CodeNullRecord, Message: "record is null"}}
	}
	if len(el) == 0 || el[0] != '{' {
		return h, []Violation{{Index: i, Code: CodeNotObject, Message: "record must be a JSON object"}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(el, &fields); err != nil {
		return h, []Violation{{Index: i, Code: CodeNotObject, Message: err.Error()}}
	}

	// Decode the id first so later violations can name the record.
	var vs []Violation
	decodeField(fields, FieldID, &h.ID, i, "", &vs)

	for _, k := range duplicateKeys(el) {
		vs = append(vs, Violation{Index: i, HypothesisID: h.ID, Field: k, Code: CodeDuplicateField,
			Message: fmt.Sprintf("field %q appears more than once", k)})
	}

	var unknown []string
	for k := range fields {
		if !knownFields[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		vs = append(vs, Violation{Index: i, HypothesisID: h.ID, Field: k, Code: CodeUnknownField,
			Message: fmt.Sprintf("field %q is not permitted", k)})
	}

	decodeField(fields, FieldHypothesis, &h.Hypothesis, i, h.ID, &vs)
	decodeField(fields, FieldReasoning, &h.Reasoning, i, h.ID, &vs)

	var names []string
	if decodeField(fields, FieldExpectedSignals, &names, i, h.ID, &vs) {
		h.ExpectedSignals = make([]signals.Signal, len(names))
		for j, n := range names {
			h.ExpectedSignals[j] = signals.Signal(n)
		}
	}
	decodeField(fields, FieldConfidence, &h.Confidence, i, h.ID, &vs)

	return h, vs
}

func decodeField(fields map[string]json.RawMessage, name string, dst any, index int, id string, vs *[]Violation) bool {
	raw, ok := fields[name]
	if !ok {
		*vs = append(*vs, Violation{Index: index, HypothesisID: id, Field: name, Code: CodeMissingField,
			Message: "field is required"})
		return false
	}
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		*vs = append(*vs, Violation{Index: index, HypothesisID: id, Field: name, Code: CodeNullField,
			Message: "field must not be null"})
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		*vs = append(*vs, Violation{Index: index, HypothesisID: id, Field: name, Code: CodeTypeMismatch,
			Message: err.Error()})
		return false
	}
	return true
}

// duplicateKeys lists the top-level keys of a well-formed object that occur
// more than once, in order of first repetition. Unmarshal keeps only the last.
func duplicateKeys(obj json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	seen := make(map[string]int)
	var dups []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return dups
		}
		key, ok := tok.(string)
		if !ok {
			return dups
		}
		if seen[key]++; seen[key] == 2 {
			dups = append(dups, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return dups
		}
	}
	return dups
}
