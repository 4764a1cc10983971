package mcp

import (
	"fmt"
	"strings"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

// formatGenerations lists cached responses, one numbered block per generation.
func formatGenerations(gens []models.ChatGeneration) string {
	var b strings.Builder
	for i, g := range gens {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, g.Text())
	}
	return b.String()
}

// FormatCacheStats formats cache stats as text.
func FormatCacheStats(stats models.CacheStats) string {
	return formatCacheStats(stats)
}

func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses + stats.Errors
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Errors:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, stats.Errors, hitRate)
}
