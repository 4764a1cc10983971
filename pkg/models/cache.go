package models

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "langchain_cache/"

// CacheEntry is the JSON document stored at each cache key.
type CacheEntry struct {
	Response  []string `json:"response"`
	Timestamp int64    `json:"timestamp"`
}

// CacheStats reports cache contents and lookup outcomes for this process.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Errors  int64 `json:"errors"`
}
