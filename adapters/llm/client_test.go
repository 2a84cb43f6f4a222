package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIClientChatCompletion(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4.1-mini-2025",
			"choices": [{"message": {"role": "assistant", "content": "[]"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 2, "total_tokens": 122}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL+"/", 5*time.Second, 0.2, 0)
	resp, err := client.ChatCompletionWithUsage(context.Background(), "gpt-4.1-mini", "system", "prompt", 256)
	if err != nil {
		t.Fatalf("ChatCompletionWithUsage failed: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("Expected content [], got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 122 || resp.Usage.Model != "gpt-4.1-mini-2025" {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}

	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("Expected system and user messages, got %v", gotBody["messages"])
	}
	if gotBody["max_tokens"].(float64) != 256 {
		t.Errorf("Expected max_tokens 256, got %v", gotBody["max_tokens"])
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "openai http 429: rate limited"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "missing choices"},
		{"not json", http.StatusOK, `<html>`, "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewOpenAIClient("k", srv.URL, time.Second, 0, 0)
			_, err := client.ChatCompletion(context.Background(), "m", "", "p", 0)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpenAIClientRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("k", srv.URL, time.Second, 0, 1)
	if _, err := client.ChatCompletion(context.Background(), "m", "", "p", 0); err != nil {
		t.Fatalf("First call should pass the limiter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.ChatCompletion(ctx, "m", "", "p", 0); err == nil {
		t.Error("Expected second call within the same minute to be limited")
	}
}

func TestNewLLMClientRequiresKey(t *testing.T) {
	if _, err := newLLMClient(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
	c, err := newLLMClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if c.(*OpenAIClient).BaseURL != defaultBaseURL {
		t.Errorf("Expected default base URL, got %s", c.(*OpenAIClient).BaseURL)
	}
}
