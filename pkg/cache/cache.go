// Package cache implements the LLM response cache on top of an object store.
//
// Entries live at <prefix><sha256(prompt ":" llm_string)>.json with the body
// {"response": [...], "timestamp": <unix seconds>}. Lookups never fail: store
// and decode errors are logged, counted, and reported as misses. Writes and
// clears return their errors.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/telemetry"
)

// ResponseCache stores model responses in an object store. It is safe for
// concurrent use; concurrent writers to the same key race with last-write-wins.
type ResponseCache struct {
	store            store.ObjectStore
	prefix           string
	log              zerolog.Logger
	metrics          *telemetry.Metrics
	now              func() time.Time
	clearConcurrency int

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithPrefix sets the key prefix. It is normalized to end in a single "/".
// An empty prefix keeps the default "langchain_cache/" rather than
// normalizing to "/"; there is no way to write at the bucket root.
func WithPrefix(prefix string) Option {
	return func(c *ResponseCache) {
		if prefix != "" {
			c.prefix = NormalizePrefix(prefix)
		}
	}
}

// WithLogger sets the logger used for lookup failures and clear progress.
func WithLogger(log zerolog.Logger) Option {
	return func(c *ResponseCache) { c.log = log }
}

// WithMetrics records operation outcomes in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *ResponseCache) { c.metrics = m }
}

// WithClearConcurrency sets how many deletions Clear runs at once.
func WithClearConcurrency(n int) Option {
	return func(c *ResponseCache) {
		if n > 0 {
			c.clearConcurrency = n
		}
	}
}

// WithClock overrides the wall clock used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// New creates a ResponseCache over st. No I/O is performed.
func New(st store.ObjectStore, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:            st,
		prefix:           models.DefaultPrefix,
		log:              zerolog.Nop(),
		now:              time.Now,
		clearConcurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prefix returns the normalized key prefix.
func (c *ResponseCache) Prefix() string { return c.prefix }

// Key returns the object name for prompt and llmString.
func (c *ResponseCache) Key(prompt, llmString string) string {
	return Key(c.prefix, prompt, llmString)
}

// Lookup returns the cached generations for prompt and llmString. The second
// result is false when there is no usable entry, including when the store or
// the entry could not be read.
func (c *ResponseCache) Lookup(ctx context.Context, prompt, llmString string) ([]models.ChatGeneration, bool) {
	start := time.Now()
	key := c.Key(prompt, llmString)

	gens, outcome := c.lookup(ctx, key)
	switch outcome {
	case telemetry.OutcomeHit:
		c.hits.Add(1)
	case telemetry.OutcomeMiss:
		c.misses.Add(1)
	default:
		c.errors.Add(1)
	}
	c.metrics.RecordLookup(outcome, time.Since(start))
	return gens, outcome == telemetry.OutcomeHit
}

func (c *ResponseCache) lookup(ctx context.Context, key string) ([]models.ChatGeneration, string) {
	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Str("outcome", telemetry.OutcomeStoreError).Msg("cache store read failed")
		return nil, telemetry.OutcomeStoreError
	}
	if !ok {
		return nil, telemetry.OutcomeMiss
	}

	responses, err := decodeEntry(body)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Str("outcome", telemetry.OutcomeDecodeError).Msg("cache entry unreadable")
		return nil, telemetry.OutcomeDecodeError
	}
	if len(responses) == 0 {
		return nil, telemetry.OutcomeMiss
	}

	gens := make([]models.ChatGeneration, len(responses))
	for i, text := range responses {
		gens[i] = models.ChatGeneration{Message: models.AIMessage{Content: text}}
	}
	return gens, telemetry.OutcomeHit
}

// Update writes values as the entry for prompt and llmString, replacing any
// existing entry. Each value is reduced to text with models.ResultText.
func (c *ResponseCache) Update(ctx context.Context, prompt, llmString string, values []any) error {
	start := time.Now()
	err := c.update(ctx, c.Key(prompt, llmString), values)
	c.metrics.RecordUpdate(err, time.Since(start))
	return err
}

func (c *ResponseCache) update(ctx context.Context, key string, values []any) error {
	entry := models.CacheEntry{
		Response:  make([]string, len(values)),
		Timestamp: c.now().Unix(),
	}
	for i, v := range values {
		entry.Response[i] = models.ResultText(v)
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.store.Put(ctx, key, body, store.ContentTypeJSON)
}

// Clear deletes every object under the prefix. A failed deletion does not stop
// the others; failures are returned together as a *ClearError.
func (c *ResponseCache) Clear(ctx context.Context) error {
	start := time.Now()
	keys, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}

	var deleted, failed atomic.Int64
	p := pool.New().WithErrors().WithMaxGoroutines(c.clearConcurrency)
	for _, key := range keys {
		key := key
		p.Go(func() error {
			if err := c.store.Delete(ctx, key); err != nil {
				failed.Add(1)
				c.log.Warn().Err(err).Str("key", key).Msg("cache entry delete failed")
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err = p.Wait()

	c.metrics.RecordClear(int(deleted.Load()), int(failed.Load()), time.Since(start))
	c.log.Info().Int64("deleted", deleted.Load()).Int64("failed", failed.Load()).Str("prefix", c.prefix).Msg("cache cleared")
	if err != nil {
		return &ClearError{Deleted: int(deleted.Load()), Failed: int(failed.Load()), Err: err}
	}
	return nil
}

// Stats counts the entries under the prefix and reports this process's
// lookup outcomes.
func (c *ResponseCache) Stats(ctx context.Context) (models.CacheStats, error) {
	keys, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: int64(len(keys)),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
	}, nil
}
