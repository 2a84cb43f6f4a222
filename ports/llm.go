package ports

import "context"

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse represents an LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient interface for LLM providers
type LLMClient interface {
	ChatCompletion(ctx context.Context, model, system, prompt string, maxTokens int) (string, error)

	// Same call, with token usage reported by the provider
	ChatCompletionWithUsage(ctx context.Context, model, system, prompt string, maxTokens int) (*LLMResponse, error)
}
