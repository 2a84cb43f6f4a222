package usage

import (
	"sort"
	"sync"

	"adinsight/internal"
	"adinsight/ports"
)

// Totals are the accumulated token counts for one provider/model pair
type Totals struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Requests         int    `json:"requests"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// Service accumulates LLM usage in memory for the lifetime of the process
type Service struct {
	mu     sync.Mutex
	totals map[string]*Totals
	logger *internal.Logger
}

// NewService creates a new usage service
func NewService() *Service {
	return &Service{
		totals: make(map[string]*Totals),
		logger: internal.DefaultLogger.Named("UsageService"),
	}
}

// RecordUsage adds one completion's usage. Bad data is logged and dropped so
// tracking never fails the caller.
func (s *Service) RecordUsage(operationType string, usage *ports.UsageData) {
	if usage == nil {
		return
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		s.logger.Error("invalid token counts for %s: %+v", operationType, usage)
		return
	}

	key := usage.Provider + "/" + usage.Model
	s.mu.Lock()
	t, ok := s.totals[key]
	if !ok {
		t = &Totals{Provider: usage.Provider, Model: usage.Model}
		s.totals[key] = t
	}
	t.Requests++
	t.PromptTokens += usage.PromptTokens
	t.CompletionTokens += usage.CompletionTokens
	t.TotalTokens += usage.TotalTokens
	s.mu.Unlock()

	s.logger.Debug("%s: %s used %d tokens", operationType, key, usage.TotalTokens)
}

// Snapshot returns a copy of the totals ordered by provider and model
func (s *Service) Snapshot() []Totals {
	s.mu.Lock()
	out := make([]Totals, 0, len(s.totals))
	for _, t := range s.totals {
		out = append(out, *t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}
