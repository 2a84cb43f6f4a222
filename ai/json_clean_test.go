package ai

import "testing"

func TestCleanJSONContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain array", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"leading chatter", "Here is the JSON you asked for:\n[{\"a\":1}]", `[{"a":1}]`},
		{"unlabelled prefix", "Sure\n[\n{\"a\":1}\n]", "[\n{\"a\":1}\n]"},
		{"chatter before fence", "Here is the JSON:\n```json\n[]\n```", `[]`},
		{"wrapping object is left alone", `{"hypotheses":[]}`, `{"hypotheses":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSONContent(tt.in); got != tt.want {
				t.Errorf("CleanJSONContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
