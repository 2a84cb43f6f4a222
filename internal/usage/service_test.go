package usage

import (
	"sync"
	"testing"

	"adinsight/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUsageAccumulatesPerModel(t *testing.T) {
	s := NewService()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordUsage("generate", &ports.UsageData{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120, Model: "gpt-4o-mini", Provider: "openai"})
		}()
	}
	wg.Wait()
	s.RecordUsage("generate", &ports.UsageData{TotalTokens: 5, Model: "m", Provider: "mock"})

	got := s.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "mock", got[0].Provider)
	assert.Equal(t, Totals{Provider: "openai", Model: "gpt-4o-mini", Requests: 20, PromptTokens: 2000, CompletionTokens: 400, TotalTokens: 2400}, got[1])
}

func TestRecordUsageDropsInvalidData(t *testing.T) {
	s := NewService()
	s.RecordUsage("generate", nil)
	s.RecordUsage("generate", &ports.UsageData{PromptTokens: -1, Model: "m"})
	assert.Empty(t, s.Snapshot())
}
