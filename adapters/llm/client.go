package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"adinsight/ports"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openai.com/v1"

// newLLMClient creates an LLM client based on config
func newLLMClient(config Config) (ports.LLMClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}

	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return NewOpenAIClient(config.APIKey, baseURL, config.Timeout, config.Temperature, config.RequestsPerMinute), nil
}

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	mu         sync.Mutex
	calls      int
	lastPrompt string
	lastSystem string
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastPrompt = prompt
	m.lastSystem = system
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	// Default mock response
	return `[
		{
			"hypothesis_id": "h_roas_drop",
			"hypothesis": "ROAS declined because post-click conversion efficiency fell while traffic held steady.",
			"reasoning": "ROAS fell from 2.10 to 1.20 while spend and CTR were flat.",
			"expected_signals": ["roas_down", "spend_flat", "ctr_flat"],
			"confidence": 0.7
		}
	]`, nil
}

func (m *MockLLMClient) ChatCompletionWithUsage(ctx context.Context, model, system, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	content, err := m.ChatCompletion(ctx, model, system, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	return &ports.LLMResponse{
		Content: content,
		Usage:   &ports.UsageData{Model: model, Provider: "mock"},
	}, nil
}

// Calls returns how many completions were requested.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent user prompt.
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastSystem returns the most recent system message.
func (m *MockLLMClient) LastSystem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem
}

// OpenAIClient implements LLMClient for OpenAI-compatible Chat Completions
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64

	httpClient *http.Client
	limiter    *rate.Limiter // nil means unlimited
}

// NewOpenAIClient creates a client. requestsPerMinute <= 0 disables client-side rate limiting.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration, temperature float64, requestsPerMinute int) *OpenAIClient {
	c := &OpenAIClient{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Timeout:     timeout,
		Temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
	if requestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return c
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, system, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *OpenAIClient) ChatCompletionWithUsage(ctx context.Context, model, system, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if system == "" {
		system = "You are a careful assistant. Output exactly what the user asks for."
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// Chat Completions API (kept minimal: one system + one user message)
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, gjson.GetBytes(respRaw, "error.message").String())
	}
	if !gjson.ValidBytes(respRaw) {
		return nil, fmt.Errorf("openai response is not valid JSON")
	}

	content := gjson.GetBytes(respRaw, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("openai response missing choices")
	}

	usage := gjson.GetBytes(respRaw, "usage")
	return &ports.LLMResponse{
		Content: content.String(),
		Usage: &ports.UsageData{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
			Model:            gjson.GetBytes(respRaw, "model").String(),
			Provider:         "openai",
		},
	}, nil
}
