package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const entrySchemaJSON = `{
	"type": "object",
	"properties": {
		"response": {
			"type": ["array", "null"],
			"items": {"type": "string"}
		}
	}
}`

var entrySchema = mustSchema(entrySchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile entry schema: %v", err))
	}
	return schema
}

// storedEntry is the part of a stored body a lookup reads. Other writers may
// encode the timestamp as a float or a string, so it is not decoded.
type storedEntry struct {
	Response []string `json:"response"`
}

// decodeEntry validates body against the entry schema and decodes its
// responses.
func decodeEntry(body []byte) ([]string, error) {
	result, err := entrySchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("parse cache entry: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid cache entry: %s", strings.Join(msgs, "; "))
	}

	var entry storedEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry.Response, nil
}
