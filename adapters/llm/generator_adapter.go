package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adinsight/ai"
	"adinsight/domain/core"
	"adinsight/domain/hypothesis"
	"adinsight/domain/signals"
	"adinsight/domain/summary"
	"adinsight/internal"
	"adinsight/ports"
)

// Config holds LLM adapter configuration
type Config struct {
	Model               string        // e.g., "gpt-4.1-mini"
	APIKey              string        // OpenAI API key
	BaseURL             string        // Optional override (default: https://api.openai.com/v1)
	Temperature         float64       // 0.0-1.0, lower = more deterministic
	MaxTokens           int           // Max tokens in response
	Timeout             time.Duration // Request timeout
	RequestsPerMinute   int           // Client-side rate limit, 0 = unlimited
	FallbackToHeuristic bool          // Fallback to heuristic on transport error
	PromptsDir          string        // Optional template override directory
	MaxHypotheses       int           // Upper bound stated in the prompt
	MinRelativeChange   float64       // Anchoring threshold for prompt directives
}

const systemMessage = "You are the Insight Agent. Respond with a bare JSON array of hypothesis objects and nothing else."

// GeneratorAdapter implements GeneratorPort using an LLM. The model is an
// untrusted producer: its reply is decoded strictly and any contract breach
// is returned, never repaired.
type GeneratorAdapter struct {
	config      Config
	llmClient   ports.LLMClient
	fallbackGen ports.GeneratorPort
	vocab       *signals.Vocabulary
	prompts     *ai.PromptManager
	logger      *internal.Logger
}

// NewGeneratorAdapter creates a new LLM generator adapter
func NewGeneratorAdapter(config Config, vocab *signals.Vocabulary, fallbackGen ports.GeneratorPort) (*GeneratorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewGeneratorAdapterWithClient(config, client, vocab, fallbackGen), nil
}

// NewGeneratorAdapterWithClient wires an existing client, e.g. a MockLLMClient
func NewGeneratorAdapterWithClient(config Config, client ports.LLMClient, vocab *signals.Vocabulary, fallbackGen ports.GeneratorPort) *GeneratorAdapter {
	if vocab == nil {
		vocab = signals.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxHypotheses <= 0 {
		config.MaxHypotheses = 10
	}
	if config.MinRelativeChange <= 0 {
		config.MinRelativeChange = 0.15
	}
	return &GeneratorAdapter{
		config:      config,
		llmClient:   client,
		fallbackGen: fallbackGen,
		vocab:       vocab,
		prompts:     ai.NewPromptManager(config.PromptsDir),
		logger:      internal.DefaultLogger.Named("LLMGenerator"),
	}
}

// BuildPrompt renders the insight template for one summary
func (g *GeneratorAdapter) BuildPrompt(s *summary.PerformanceSummary) (string, error) {
	summaryJSON, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	var sigs strings.Builder
	for _, e := range g.vocab.Entries() {
		fmt.Fprintf(&sigs, "- %s: %s\n", e.Name, e.Description)
	}

	directives := ai.CompileSummaryDirectiveFragments(s, g.config.MinRelativeChange)
	if len(directives) == 0 {
		directives = []string{"EVIDENCE: No additional directives."}
	}

	return g.prompts.RenderPrompt(ai.InsightPrompt, map[string]string{
		"SUMMARY_JSON":       string(summaryJSON),
		"SIGNALS":            strings.TrimRight(sigs.String(), "\n"),
		"VOCABULARY_VERSION": g.vocab.Version(),
		"MAX_HYPOTHESES":     strconv.Itoa(g.config.MaxHypotheses),
		"DIRECTIVES":         strings.Join(directives, "\n"),
	})
}

// ParseHypotheses cleans markdown and chatter, then decodes strictly
func (g *GeneratorAdapter) ParseHypotheses(content string) ([]hypothesis.Hypothesis, error) {
	return hypothesis.DecodeBatch([]byte(ai.CleanJSONContent(content)))
}

func (g *GeneratorAdapter) baseAudit() ports.GenerationAudit {
	return ports.GenerationAudit{
		GeneratorType: ports.GeneratorLLM,
		Model:         g.config.Model,
		Temperature:   g.config.Temperature,
		MaxTokens:     g.config.MaxTokens,
	}
}

// Generate implements GeneratorPort
func (g *GeneratorAdapter) Generate(ctx context.Context, s *summary.PerformanceSummary) (*ports.Generation, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Nothing to compare and nothing to decompose: no model call needed.
	if !s.Comparable() && !s.HasBreakdowns() {
		g.logger.Debug("summary %s has a single window and no breakdowns, skipping model call", s.SummaryID)
		return &ports.Generation{Hypotheses: []hypothesis.Hypothesis{}, Audit: g.baseAudit()}, nil
	}

	// GUARDRAIL: Timeout. The fallback runs on the caller's context.
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	prompt, err := g.BuildPrompt(s)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	audit := g.baseAudit()
	audit.PromptHash = core.NewHash([]byte(prompt))

	resp, err := g.llmClient.ChatCompletionWithUsage(callCtx, g.config.Model, systemMessage, prompt, g.config.MaxTokens)
	if err != nil {
		// Fallback to heuristic on transport error only
		if g.config.FallbackToHeuristic && g.fallbackGen != nil {
			g.logger.Warn("LLM call failed for summary %s, falling back to heuristic: %v", s.SummaryID, err)
			gen, ferr := g.fallbackGen.Generate(ctx, s)
			if ferr != nil {
				return nil, core.NewGenerationError(ports.GeneratorHeuristic, ferr)
			}
			gen.Audit.FellBack = true
			gen.Audit.FallbackCause = err.Error()
			gen.Audit.PromptHash = audit.PromptHash
			gen.Audit.Model = g.config.Model
			return gen, nil
		}
		return nil, core.NewGenerationError(ports.GeneratorLLM, err)
	}
	audit.ResponseHash = core.NewHash([]byte(resp.Content))
	audit.Usage = resp.Usage

	hs, err := g.ParseHypotheses(resp.Content)
	if err != nil {
		g.logger.Error("LLM response %s for prompt %s violates the output contract: %v",
			audit.ResponseHash.Short(), audit.PromptHash.Short(), err)
		// The tokens were spent; the audit goes back so usage is still counted.
		return &ports.Generation{Audit: audit}, err
	}
	if len(hs) > g.config.MaxHypotheses {
		g.logger.Warn("LLM returned %d hypotheses, more than the requested %d", len(hs), g.config.MaxHypotheses)
	}

	g.logger.Debug("LLM produced %d hypotheses (prompt %s, response %s)", len(hs), audit.PromptHash.Short(), audit.ResponseHash.Short())
	return &ports.Generation{Hypotheses: hs, Audit: audit}, nil
}
