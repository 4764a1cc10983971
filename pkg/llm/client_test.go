package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

func newTestClient(url, typ string, retries int) *Client {
	return NewClient(config.ProviderConfig{Name: "test", URL: url, APIKey: "sk-provider", Type: typ}, 5*time.Second, retries, zerolog.Nop())
}

func TestChatOpenAI(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-provider" {
			t.Error("expected provider API key in upstream request")
		}
		var req models.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		if req.Model != "grok-3-mini" || req.Temperature == nil || *req.Temperature != 0 {
			t.Errorf("unexpected request: %+v", req)
		}
		resp := models.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: req.Model,
			Choices: []models.Choice{
				{Index: 0, Message: models.ChatMessage{Role: "assistant", Content: "Why did the chicken..."}, FinishReason: "stop"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer upstream.Close()

	c := newTestClient(upstream.URL, "", 0)
	gens, err := c.Chat(context.Background(), "grok-3-mini", []models.ChatMessage{{Role: "user", Content: "Tell me a joke"}}, Params{"temperature": 0.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 1 || gens[0].Text() != "Why did the chicken..." {
		t.Errorf("unexpected generations: %+v", gens)
	}
}

func TestChatRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(models.ChatCompletionResponse{
			Choices: []models.Choice{{Message: models.ChatMessage{Content: "ok"}}},
		})
	}))
	defer upstream.Close()

	gens, err := newTestClient(upstream.URL, "", 1).Chat(context.Background(), "m", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if gens[0].Text() != "ok" {
		t.Errorf("unexpected text %q", gens[0].Text())
	}
}

func TestChatNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream.URL, "", 3).Chat(context.Background(), "m", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d calls", calls.Load())
	}
}

func TestChatAnthropic(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-provider" || r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic headers")
		}
		var req models.AnthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != "be brief" || len(req.Messages) != 1 || req.MaxTokens != 64 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(models.AnthropicResponse{
			Content: []models.AnthropicContent{{Type: "text", Text: "Hello"}, {Type: "text", Text: " there"}},
		})
	}))
	defer upstream.Close()

	msgs := []models.ChatMessage{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}}
	gens, err := newTestClient(upstream.URL, "anthropic", 0).Chat(context.Background(), "claude-haiku-4-5", msgs, Params{"max_tokens": 64})
	if err != nil {
		t.Fatal(err)
	}
	if gens[0].Text() != "Hello there" {
		t.Errorf("unexpected text %q", gens[0].Text())
	}
}

func TestIsRetryable(t *testing.T) {
	if !isRetryable(http.ErrHandlerTimeout, 0) {
		t.Error("transport errors are retryable")
	}
	if !isRetryable(nil, 503) {
		t.Error("5xx is retryable")
	}
	if isRetryable(nil, 429) {
		t.Error("4xx is not retryable")
	}
}
