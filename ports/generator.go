package ports

import (
	"context"

	"adinsight/domain/core"
	"adinsight/domain/hypothesis"
	"adinsight/domain/summary"
)

// Generator types recorded in the audit.
const (
	GeneratorHeuristic = "heuristic"
	GeneratorLLM       = "llm"
)

// GeneratorPort turns one summary into candidate hypotheses. Implementations
// are untrusted producers: their output is validated before it leaves the
// service. On an output-contract error an implementation may return a
// Generation carrying only the audit of the rejected call.
type GeneratorPort interface {
	Generate(ctx context.Context, s *summary.PerformanceSummary) (*Generation, error)
}

// GenerationAudit is metadata about a generation call (prompt/response hashes, model, fallback).
type GenerationAudit struct {
	GeneratorType string     `json:"generator_type"` // "llm" | "heuristic"
	Model         string     `json:"model,omitempty"`
	Temperature   float64    `json:"temperature,omitempty"`
	MaxTokens     int        `json:"max_tokens,omitempty"`
	PromptHash    core.Hash  `json:"prompt_hash,omitempty"`
	ResponseHash  core.Hash  `json:"response_hash,omitempty"`
	FellBack      bool       `json:"fell_back,omitempty"`
	FallbackCause string     `json:"fallback_cause,omitempty"`
	Usage         *UsageData `json:"usage,omitempty"`
}

// Generation is the full output of one generator call.
// Hypotheses are unvalidated; Audit is what callers log for replay/debugging.
type Generation struct {
	Hypotheses []hypothesis.Hypothesis `json:"hypotheses"`
	Audit      GenerationAudit         `json:"audit"`
}
