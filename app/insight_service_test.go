package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"adinsight/adapters/llm"
	"adinsight/adapters/llm/heuristic"
	"adinsight/domain/core"
	"adinsight/domain/hypothesis"
	"adinsight/domain/signals"
	"adinsight/domain/summary"
	"adinsight/internal/errors"
	"adinsight/internal/usage"
	"adinsight/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a fixed generation and counts calls
type stubGenerator struct {
	hypotheses []hypothesis.Hypothesis
	err        error
	calls      atomic.Int32
}

func (g *stubGenerator) Generate(ctx context.Context, s *summary.PerformanceSummary) (*ports.Generation, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return &ports.Generation{
		Hypotheses: g.hypotheses,
		Audit:      ports.GenerationAudit{GeneratorType: "stub"},
	}, nil
}

func testSummary(id string, recentROAS, priorROAS float64) *summary.PerformanceSummary {
	return &summary.PerformanceSummary{
		SummaryID: core.SummaryID(id),
		Windows: summary.Windows{
			Recent: &summary.Window{Metrics: summary.Metrics{ROAS: summary.F(recentROAS), CTR: summary.F(0.021), Spend: summary.F(700)}},
			Prior:  &summary.Window{Metrics: summary.Metrics{ROAS: summary.F(priorROAS), CTR: summary.F(0.021), Spend: summary.F(700)}},
		},
	}
}

func validHypothesis(id string) hypothesis.Hypothesis {
	return hypothesis.Hypothesis{
		ID:              id,
		Hypothesis:      "ROAS declined because post-click conversion efficiency fell.",
		Reasoning:       "ROAS fell from 2.10 to 1.20 while spend stayed flat.",
		ExpectedSignals: []signals.Signal{signals.ROASDown, signals.SpendFlat},
		Confidence:      0.7,
	}
}

func heuristicService(t *testing.T) *InsightService {
	t.Helper()
	gen, err := heuristic.NewGenerator(heuristic.DefaultConfig(), nil)
	require.NoError(t, err)
	return NewInsightService(gen, nil, 4)
}

func TestGenerateWithHeuristicGenerator(t *testing.T) {
	svc := heuristicService(t)

	res, err := svc.Generate(context.Background(), testSummary("acct-1", 1.2, 2.1))
	require.NoError(t, err)
	require.NotNil(t, res.Batch)

	assert.False(t, res.Batch.IsEmpty())
	assert.Equal(t, core.SummaryID("acct-1"), res.Batch.SummaryID())
	assert.Equal(t, "v1", res.Batch.VocabularyVersion())
	assert.Equal(t, "heuristic", res.Audit.GeneratorType)
	assert.GreaterOrEqual(t, res.RuntimeMs, int64(0))

	_, err = core.ParseBatchID(res.Batch.ID().String())
	assert.NoError(t, err)
}

func TestGenerateEmptyBatchIsNotAnError(t *testing.T) {
	svc := heuristicService(t)

	res, err := svc.Generate(context.Background(), testSummary("flat", 2.0, 2.0))
	require.NoError(t, err)
	assert.True(t, res.Batch.IsEmpty())

	raw, err := res.Batch.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestGenerateRejectsInvalidInputBeforeGenerating(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewInsightService(gen, nil, 1)

	s := testSummary("broken", 1.2, 2.1)
	s.Windows.Recent.Metrics.ROAS = nil

	_, err := svc.Generate(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInputContract)
	assert.ErrorIs(t, err, core.ErrMissingMetric)
	assert.Equal(t, errors.CodeInputContractViolation, errors.GetCode(err))
	assert.Contains(t, err.Error(), "windows.recent.metrics.roas")
	assert.Equal(t, int32(0), gen.calls.Load(), "generator must not run on invalid input")

	_, err = svc.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrInputContract)
}

func TestGenerateRejectsWholeBatchOnAnyViolation(t *testing.T) {
	bad := validHypothesis("h_two")
	bad.ExpectedSignals = []signals.Signal{"weather_changed"}
	gen := &stubGenerator{hypotheses: []hypothesis.Hypothesis{validHypothesis("h_one"), bad}}
	svc := NewInsightService(gen, nil, 1)

	res, err := svc.Generate(context.Background(), testSummary("acct", 1.2, 2.1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, core.ErrOutputContract)
	assert.ErrorIs(t, err, core.ErrUnknownSignal)
	assert.Equal(t, errors.CodeOutputContractViolation, errors.GetCode(err))

	var ce *hypothesis.ContractError
	require.True(t, stderrors.As(err, &ce))
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, 1, ce.Violations[0].Index)
	assert.Equal(t, hypothesis.CodeUnknownSignal, ce.Violations[0].Code)
}

func TestGenerateAcceptsNamesContainingValidationWords(t *testing.T) {
	svc := heuristicService(t)
	s := testSummary("acct", 2.0, 2.0)
	s.Campaigns = []summary.CampaignBreakdown{
		{CampaignName: "Verified Buyers Retargeting", Recent: summary.Metrics{ROAS: summary.F(1.0)}, Prior: &summary.Metrics{ROAS: summary.F(2.0)}},
		{CampaignName: "Brand Google", Recent: summary.Metrics{ROAS: summary.F(2.0)}, Prior: &summary.Metrics{ROAS: summary.F(2.0)}},
		{CampaignName: "Women Studio Facebook", Recent: summary.Metrics{ROAS: summary.F(2.0)}, Prior: &summary.Metrics{ROAS: summary.F(2.0)}},
	}
	s.Creatives = []summary.CreativeBreakdown{
		{CreativeType: "video", CreativeMessage: "Proven Results", Recent: summary.Metrics{CTR: summary.F(0.01)}, Prior: &summary.Metrics{CTR: summary.F(0.02)}},
		{CreativeType: "image", CreativeMessage: "Summer Sale", Recent: summary.Metrics{CTR: summary.F(0.018)}, Prior: &summary.Metrics{CTR: summary.F(0.018)}},
	}

	res, err := svc.Generate(context.Background(), s)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, h := range res.Batch.Hypotheses() {
		ids[h.ID] = true
	}
	for _, want := range []string{"h_campaign_verified_buyers_retargeting", "h_creative_video", "h_message_proven_results"} {
		assert.True(t, ids[want], "missing %s in %v", want, ids)
	}
}

// rejectedOutputClient spends tokens on a reply that breaks the output contract
type rejectedOutputClient struct{}

func (rejectedOutputClient) ChatCompletion(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	return `{"hypotheses":[]}`, nil
}

func (c rejectedOutputClient) ChatCompletionWithUsage(ctx context.Context, model, system, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	content, _ := c.ChatCompletion(ctx, model, system, prompt, maxTokens)
	return &ports.LLMResponse{
		Content: content,
		Usage:   &ports.UsageData{PromptTokens: 300, CompletionTokens: 12, TotalTokens: 312, Model: model, Provider: "mock"},
	}, nil
}

func TestGenerateRecordsUsageOfRejectedOutput(t *testing.T) {
	gen := llm.NewGeneratorAdapterWithClient(llm.Config{Model: "test-model"}, rejectedOutputClient{}, nil, nil)
	svc := NewInsightService(gen, nil, 1).WithUsage(usage.NewService())

	_, err := svc.Generate(context.Background(), testSummary("acct", 1.2, 2.1))
	require.Error(t, err)
	assert.Equal(t, errors.CodeOutputContractViolation, errors.GetCode(err))

	totals := svc.Usage().Snapshot()
	require.Len(t, totals, 1)
	assert.Equal(t, 1, totals[0].Requests)
	assert.Equal(t, 312, totals[0].TotalTokens)
}

func TestGenerateSurfacesGeneratorFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"transport", core.NewGenerationError("llm", context.DeadlineExceeded), errors.CodeExternalService},
		{"output contract", fmt.Errorf("decode: %w", core.ErrOutputContract), errors.CodeOutputContractViolation},
		{"input contract", core.NewMissingWindowError("windows.prior"), errors.CodeInputContractViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewInsightService(&stubGenerator{err: tt.err}, nil, 1)
			_, err := svc.Generate(context.Background(), testSummary("acct", 1.2, 2.1))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	svc := heuristicService(t)
	s := testSummary("acct", 1.2, 2.1)

	first, err := svc.Generate(context.Background(), s)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), s)
	require.NoError(t, err)

	h1, err := first.Batch.Hash()
	require.NoError(t, err)
	h2, err := second.Batch.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, first.Batch.ID(), second.Batch.ID())
}

func TestGenerateAllIsolatesFailuresAndKeepsOrder(t *testing.T) {
	svc := heuristicService(t)

	broken := testSummary("broken", 1.2, 2.1)
	broken.Windows.Recent = nil

	in := []NamedSummary{
		{Name: "drop", Summary: testSummary("a", 1.2, 2.1)},
		{Name: "broken", Summary: broken},
		{Name: "flat", Summary: testSummary("c", 2.0, 2.0)},
	}
	for i := 0; i < 5; i++ {
		in = append(in, NamedSummary{Name: fmt.Sprintf("extra_%d", i), Summary: testSummary(fmt.Sprintf("x%d", i), 1.0, 2.0)})
	}

	outcomes := svc.GenerateAll(context.Background(), in)
	require.Len(t, outcomes, len(in))

	for i, o := range outcomes {
		assert.Equal(t, in[i].Name, o.Name)
		if o.Name == "broken" {
			assert.Nil(t, o.Result)
			assert.ErrorIs(t, o.Err, core.ErrMissingWindow)
			continue
		}
		require.NoError(t, o.Err, o.Name)
		assert.Equal(t, in[i].Summary.SummaryID, o.Result.Batch.SummaryID())
	}
	assert.True(t, outcomes[2].Result.Batch.IsEmpty())
	assert.False(t, outcomes[0].Result.Batch.IsEmpty())
}

func TestValidateDocument(t *testing.T) {
	svc := NewInsightService(&stubGenerator{}, nil, 1)

	valid := `[{"hypothesis_id":"h1","hypothesis":"ROAS fell because CPC rose.","reasoning":"CPC up 30%.","expected_signals":["roas_down","cpc_up"],"confidence":0.6}]`
	hs, err := svc.ValidateDocument([]byte(valid))
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "h1", hs[0].ID)

	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"wrapping object", `{"hypotheses":[]}`, hypothesis.CodeNotArray},
		{"missing confidence", `[{"hypothesis_id":"h1","hypothesis":"ROAS fell because CPC rose.","reasoning":"r","expected_signals":["roas_down"]}]`, hypothesis.CodeMissingField},
		{"validation claim", `[{"hypothesis_id":"h1","hypothesis":"ROAS drop confirmed by CPC rise.","reasoning":"r","expected_signals":["roas_down"],"confidence":0.5}]`, hypothesis.CodeValidationClaim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateDocument([]byte(tt.doc))
			require.Error(t, err)
			var ce *hypothesis.ContractError
			require.True(t, stderrors.As(err, &ce))
			assert.Contains(t, strings.Join(ce.Codes(), ","), tt.code)
		})
	}
}
