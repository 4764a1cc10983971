package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

const anthropicVersion = "2023-06-01"

// Client calls an OpenAI-compatible or Anthropic chat endpoint.
type Client struct {
	provider   config.ProviderConfig
	http       *http.Client
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a Client for provider. maxRetries is the number of extra
// attempts after a transport error or 5xx response.
func NewClient(provider config.ProviderConfig, timeout time.Duration, maxRetries int, log zerolog.Logger) *Client {
	return &Client{
		provider:   provider,
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		log:        log,
	}
}

// Provider returns the provider name.
func (c *Client) Provider() string { return c.provider.Name }

// upstreamResult holds the response from a single upstream attempt.
type upstreamResult struct {
	statusCode int
	body       []byte
}

// doUpstreamRequest sends a request to an upstream provider and returns the result.
func (c *Client) doUpstreamRequest(ctx context.Context, path string, headers map[string]string, body []byte) (*upstreamResult, error) {
	target, err := url.Parse(c.provider.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String()+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &upstreamResult{statusCode: resp.StatusCode, body: respBody}, nil
}

// isRetryable returns true if the error or status code warrants another attempt.
func isRetryable(err error, statusCode int) bool {
	if err != nil {
		return true
	}
	return statusCode >= 500
}

// send posts body to path, retrying transport errors and 5xx responses.
func (c *Client) send(ctx context.Context, path string, headers map[string]string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		res, err := c.doUpstreamRequest(ctx, path, headers, body)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.log.Warn().Err(err).Str("provider", c.provider.Name).Int("attempt", attempt+1).Msg("upstream request failed")
			continue
		}
		if isRetryable(nil, res.statusCode) {
			lastErr = fmt.Errorf("upstream %s returned %d: %s", c.provider.Name, res.statusCode, res.body)
			c.log.Warn().Int("status", res.statusCode).Str("provider", c.provider.Name).Int("attempt", attempt+1).Msg("upstream returned server error")
			continue
		}
		if res.statusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream %s returned %d: %s", c.provider.Name, res.statusCode, res.body)
		}
		return res.body, nil
	}
	return nil, fmt.Errorf("upstream %s failed: %w", c.provider.Name, lastErr)
}

// Chat sends messages to model and returns one generation per choice.
func (c *Client) Chat(ctx context.Context, model string, messages []models.ChatMessage, params Params) ([]models.ChatGeneration, error) {
	if c.provider.Type == "anthropic" {
		return c.chatAnthropic(ctx, model, messages, params)
	}

	req := models.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: floatParam(params, "temperature"),
		MaxTokens:   intParam(params, "max_tokens"),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respBody, err := c.send(ctx, "/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.provider.APIKey,
	}, body)
	if err != nil {
		return nil, err
	}

	var resp models.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	gens := make([]models.ChatGeneration, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		gens = append(gens, models.ChatGeneration{Message: models.AIMessage{Content: ch.Message.Content}})
	}
	return gens, nil
}

func (c *Client) chatAnthropic(ctx context.Context, model string, messages []models.ChatMessage, params Params) ([]models.ChatGeneration, error) {
	req := models.AnthropicRequest{
		Model:       model,
		MaxTokens:   1024,
		Temperature: floatParam(params, "temperature"),
	}
	if mt := intParam(params, "max_tokens"); mt != nil {
		req.MaxTokens = *mt
	}
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, m)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respBody, err := c.send(ctx, "/v1/messages", map[string]string{
		"x-api-key":         c.provider.APIKey,
		"anthropic-version": anthropicVersion,
	}, body)
	if err != nil {
		return nil, err
	}

	var resp models.AnthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return []models.ChatGeneration{{Message: models.AIMessage{Content: text}}}, nil
}

func floatParam(p Params, name string) *float64 {
	switch v := p[name].(type) {
	case float64:
		return &v
	case *float64:
		return v
	}
	return nil
}

func intParam(p Params, name string) *int {
	switch v := p[name].(type) {
	case int:
		return &v
	case *int:
		return v
	}
	return nil
}
