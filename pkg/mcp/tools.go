package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// entryArgs uses pointers so an empty prompt, which is a valid key input,
// can be told apart from a missing one.
type entryArgs struct {
	Prompt    *string `json:"prompt"`
	LLMString *string `json:"llm_string"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"llmcache_key":    handleKey,
	"llmcache_lookup": handleLookup,
	"llmcache_stats":  handleStats,
}

var entrySchema = map[string]any{
	"type":     "object",
	"required": []string{"prompt", "llm_string"},
	"properties": map[string]any{
		"prompt": map[string]any{
			"type":        "string",
			"description": "The prompt text as sent to the model",
		},
		"llm_string": map[string]any{
			"type":        "string",
			"description": "The model/configuration identity string",
		},
	},
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "llmcache_key",
		Description: "Show the object key a prompt and model configuration are cached under.",
		InputSchema: entrySchema,
	},
	{
		Name:        "llmcache_lookup",
		Description: "Return the cached responses for a prompt and model configuration, if any.",
		InputSchema: entrySchema,
	},
	{
		Name:        "llmcache_stats",
		Description: "Show cache statistics (entries under the prefix, hits, misses, read errors, hit rate).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func parseEntryArgs(raw json.RawMessage) (prompt, llmString string, err error) {
	var args entryArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if args.Prompt == nil {
		return "", "", errors.New("prompt is required")
	}
	if args.LLMString == nil {
		return "", "", errors.New("llm_string is required")
	}
	return *args.Prompt, *args.LLMString, nil
}

func handleKey(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	prompt, llmString, err := parseEntryArgs(raw)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(s.cache.Key(prompt, llmString))
}

func handleLookup(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	prompt, llmString, err := parseEntryArgs(raw)
	if err != nil {
		return errorResult(err.Error())
	}
	gens, hit := s.cache.Lookup(ctx, prompt, llmString)
	if !hit {
		return textResult("No cached entry.")
	}
	return textResult(formatGenerations(gens))
}

func handleStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}
