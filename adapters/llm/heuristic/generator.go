package heuristic

import (
	"context"
	"fmt"

	"adinsight/domain/hypothesis"
	"adinsight/domain/signals"
	"adinsight/domain/summary"
	"adinsight/ports"
)

// Config holds the rule thresholds. Changes are relative: 0.15 means 15%.
type Config struct {
	MinRelativeChange float64 // smallest move that backs a claim
	FlatTolerance     float64 // moves within this band count as flat
	LowCTRThreshold   float64 // absolute CTR floor for the low-CTR rule, 0 disables it
	MaxHypotheses     int
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		MinRelativeChange: 0.15,
		FlatTolerance:     0.05,
		LowCTRThreshold:   0,
		MaxHypotheses:     10,
	}
}

// Validate checks that the thresholds describe a usable band.
func (c Config) Validate() error {
	if c.FlatTolerance <= 0 || c.FlatTolerance >= 1 {
		return fmt.Errorf("flat tolerance must be in (0, 1), got %v", c.FlatTolerance)
	}
	if c.MinRelativeChange <= c.FlatTolerance || c.MinRelativeChange >= 1 {
		return fmt.Errorf("min relative change must be in (flat tolerance, 1), got %v", c.MinRelativeChange)
	}
	if c.LowCTRThreshold < 0 || c.LowCTRThreshold >= 1 {
		return fmt.Errorf("low CTR threshold must be in [0, 1), got %v", c.LowCTRThreshold)
	}
	if c.MaxHypotheses <= 0 {
		return fmt.Errorf("max hypotheses must be positive, got %d", c.MaxHypotheses)
	}
	return nil
}

// Generator creates hypotheses from summary comparisons using fixed rules
type Generator struct {
	cfg   Config
	vocab *signals.Vocabulary
}

// NewGenerator creates a new heuristic hypothesis generator. Signals outside
// vocab are never emitted; a nil vocab selects the built-in vocabulary.
func NewGenerator(cfg Config, vocab *signals.Vocabulary) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vocab == nil {
		vocab = signals.Default()
	}
	return &Generator{cfg: cfg, vocab: vocab}, nil
}

// Config returns the generator thresholds.
func (g *Generator) Config() Config { return g.cfg }

// Generate runs the window, campaign, creative and low-CTR rules in that order.
// A summary with nothing to compare yields an empty generation.
func (g *Generator) Generate(ctx context.Context, s *summary.PerformanceSummary) (*ports.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	b := newBuilder(g.vocab, g.cfg.MaxHypotheses)

	if s.Comparable() {
		a := g.analyze(s)
		g.windowRules(b, s, a)
		g.campaignRules(b, s, a)
		g.creativeRules(b, a)
	}
	g.lowCTRRule(b, s)

	return &ports.Generation{
		Hypotheses: b.result(),
		Audit: ports.GenerationAudit{
			GeneratorType: ports.GeneratorHeuristic,
		},
	}, nil
}

// builder accumulates hypotheses with unique IDs up to a cap.
type builder struct {
	vocab *signals.Vocabulary
	ids   *idAllocator
	limit int
	out   []hypothesis.Hypothesis
}

func newBuilder(vocab *signals.Vocabulary, limit int) *builder {
	return &builder{vocab: vocab, ids: newIDAllocator(), limit: limit, out: []hypothesis.Hypothesis{}}
}

func (b *builder) full() bool { return len(b.out) >= b.limit }

// add keeps only vocabulary signals, without duplicates. A hypothesis left with
// no signals is dropped.
func (b *builder) add(base, claim, reasoning string, confidence float64, sigs ...signals.Signal) {
	if b.full() {
		return
	}
	kept := make([]signals.Signal, 0, len(sigs))
	seen := make(map[signals.Signal]bool, len(sigs))
	for _, s := range sigs {
		if seen[s] || !b.vocab.Contains(s) {
			continue
		}
		seen[s] = true
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return
	}
	b.out = append(b.out, hypothesis.Hypothesis{
		ID:              b.ids.next(base),
		Hypothesis:      claim,
		Reasoning:       reasoning,
		ExpectedSignals: kept,
		Confidence:      confidence,
	})
}

func (b *builder) result() []hypothesis.Hypothesis { return b.out }
