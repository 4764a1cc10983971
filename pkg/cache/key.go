package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizePrefix strips trailing slashes and appends exactly one.
func NormalizePrefix(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/"
}

// Key returns the object name for a prompt and model configuration string:
// prefix + hex(sha256(prompt + ":" + llmString)) + ".json".
func Key(prefix, prompt, llmString string) string {
	sum := sha256.Sum256([]byte(prompt + ":" + llmString))
	return prefix + hex.EncodeToString(sum[:]) + ".json"
}
