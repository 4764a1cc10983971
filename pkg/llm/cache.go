package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

// Cache is the extension point a model invocation consults before calling a
// provider. *cache.ResponseCache implements it.
type Cache interface {
	Lookup(ctx context.Context, prompt, llmString string) ([]models.ChatGeneration, bool)
	Update(ctx context.Context, prompt, llmString string, values []any) error
	Clear(ctx context.Context) error
}

// Params are the generation parameters that distinguish one model
// configuration from another.
type Params map[string]any

// LLMString identifies a provider, model and parameter set. Keys are
// serialized in sorted order so equal configurations give equal strings.
// Parameters that cannot be encoded, such as NaN, are an error.
func LLMString(provider, model string, params Params) (string, error) {
	doc := map[string]any{
		"provider": provider,
		"model":    model,
	}
	if len(params) > 0 {
		doc["params"] = params
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode llm string for %s/%s: %w", provider, model, err)
	}
	return string(data), nil
}
