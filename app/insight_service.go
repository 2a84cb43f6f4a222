package app

import (
	"context"
	"time"

	"adinsight/domain/core"
	"adinsight/domain/hypothesis"
	"adinsight/domain/signals"
	"adinsight/domain/summary"
	"adinsight/internal"
	"adinsight/internal/errors"
	"adinsight/internal/usage"
	"adinsight/ports"

	"golang.org/x/sync/errgroup"
)

// InsightService wraps a generator with the input and output contracts.
// Nothing leaves Generate unless the whole batch passed validation.
type InsightService struct {
	generator   ports.GeneratorPort
	validator   *hypothesis.Validator
	concurrency int
	usage       *usage.Service
	logger      *internal.Logger
}

// GenerationResult is an accepted batch with its audit trail
type GenerationResult struct {
	Batch     *hypothesis.Batch
	Audit     ports.GenerationAudit
	RuntimeMs int64
}

// NamedSummary labels a summary in a multi-summary run
type NamedSummary struct {
	Name    string
	Summary *summary.PerformanceSummary
}

// BatchOutcome is the per-summary result of GenerateAll. Exactly one of
// Result and Err is set.
type BatchOutcome struct {
	Name   string
	Result *GenerationResult
	Err    error
}

// NewInsightService creates an insight service. A nil vocabulary selects the
// built-in one; concurrency below one runs GenerateAll sequentially.
func NewInsightService(generator ports.GeneratorPort, vocab *signals.Vocabulary, concurrency int) *InsightService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &InsightService{
		generator:   generator,
		validator:   hypothesis.NewValidator(vocab),
		concurrency: concurrency,
		logger:      internal.DefaultLogger.Named("InsightService"),
	}
}

// WithUsage records the token usage of every generation in u
func (s *InsightService) WithUsage(u *usage.Service) *InsightService {
	s.usage = u
	return s
}

// Usage returns the usage tracker, nil when none is attached
func (s *InsightService) Usage() *usage.Service {
	return s.usage
}

// Vocabulary returns the vocabulary the output is validated against
func (s *InsightService) Vocabulary() *signals.Vocabulary {
	return s.validator.Vocabulary()
}

// Generate produces one validated batch for a summary. An empty batch is a
// valid result.
func (s *InsightService) Generate(ctx context.Context, in *summary.PerformanceSummary) (*GenerationResult, error) {
	startTime := time.Now()

	if err := in.Validate(); err != nil {
		s.logger.Warn("summary rejected: %v", err)
		return nil, errors.InputContractViolation(err)
	}

	gen, err := s.generator.Generate(ctx, in)
	if gen != nil && s.usage != nil {
		s.usage.RecordUsage("generate", gen.Audit.Usage)
	}
	if err != nil {
		switch {
		case core.IsInputContractError(err):
			return nil, errors.InputContractViolation(err)
		case core.IsOutputContractError(err):
			s.logger.Warn("generator output for summary %s rejected: %v", in.SummaryID, err)
			return nil, errors.OutputContractViolation(err)
		}
		s.logger.Error("generation for summary %s failed: %v", in.SummaryID, err)
		return nil, errors.Wrap(err, "hypothesis generation failed")
	}

	if err := s.validator.Validate(gen.Hypotheses); err != nil {
		s.logger.Warn("batch for summary %s rejected: %v", in.SummaryID, err)
		return nil, errors.OutputContractViolation(err)
	}

	batch := hypothesis.NewBatch(in.SummaryID, s.validator.Vocabulary().Version(), gen.Hypotheses)
	runtimeMs := time.Since(startTime).Milliseconds()

	if gen.Audit.FellBack {
		s.logger.Warn("summary %s answered by fallback generator: %s", in.SummaryID, gen.Audit.FallbackCause)
	}
	s.logger.Info("batch %s: %d hypotheses from %s generator in %dms", batch.ID(), batch.Len(), gen.Audit.GeneratorType, runtimeMs)

	return &GenerationResult{
		Batch:     batch,
		Audit:     gen.Audit,
		RuntimeMs: runtimeMs,
	}, nil
}

// GenerateAll runs Generate for every summary with bounded parallelism.
// Outcomes keep the input order and a failure only affects its own entry.
func (s *InsightService) GenerateAll(ctx context.Context, in []NamedSummary) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range in {
		i, item := i, item
		g.Go(func() error {
			res, err := s.Generate(gctx, item.Summary)
			outcomes[i] = BatchOutcome{Name: item.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait() // errors captured per outcome

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.logger.Info("generated %d batches, %d failed", len(in)-failed, failed)
	return outcomes
}

// ValidateDocument strictly decodes and validates a batch produced elsewhere
func (s *InsightService) ValidateDocument(raw []byte) ([]hypothesis.Hypothesis, error) {
	hs, err := hypothesis.DecodeBatch(raw)
	if err != nil {
		return nil, errors.OutputContractViolation(err)
	}
	if err := s.validator.Validate(hs); err != nil {
		return nil, errors.OutputContractViolation(err)
	}
	return hs, nil
}
