package llm

import (
	"context"
	"fmt"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

// Chatter produces generations for a conversation. *Client implements it.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []models.ChatMessage, params Params) ([]models.ChatGeneration, error)
}

// CachedModel answers prompts from Cache when it can and from the provider
// otherwise, writing fresh answers back to the cache.
type CachedModel struct {
	Chatter  Chatter
	Cache    Cache
	Provider string
	Model    string
	Params   Params
}

// LLMString returns the configuration identity used in cache keys.
func (m *CachedModel) LLMString() (string, error) {
	return LLMString(m.Provider, m.Model, m.Params)
}

// Invoke returns the first generation for prompt and whether it came from the
// cache. A failed cache write is returned as an error.
func (m *CachedModel) Invoke(ctx context.Context, prompt string) (models.ChatGeneration, bool, error) {
	var llmString string
	if m.Cache != nil {
		var err error
		if llmString, err = m.LLMString(); err != nil {
			return models.ChatGeneration{}, false, err
		}
		if gens, ok := m.Cache.Lookup(ctx, prompt, llmString); ok {
			return gens[0], true, nil
		}
	}

	gens, err := m.Chatter.Chat(ctx, m.Model, []models.ChatMessage{{Role: "user", Content: prompt}}, m.Params)
	if err != nil {
		return models.ChatGeneration{}, false, err
	}
	if len(gens) == 0 {
		return models.ChatGeneration{}, false, fmt.Errorf("model %s returned no generations", m.Model)
	}

	if m.Cache != nil {
		values := make([]any, len(gens))
		for i, g := range gens {
			values[i] = g
		}
		if err := m.Cache.Update(ctx, prompt, llmString, values); err != nil {
			return models.ChatGeneration{}, false, fmt.Errorf("update cache: %w", err)
		}
	}
	return gens[0], false, nil
}
