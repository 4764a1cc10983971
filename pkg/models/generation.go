package models

import (
	"fmt"
	"reflect"
)

// TextResult is implemented by results that carry a dedicated text payload.
type TextResult interface {
	Text() string
}

// ContentResult is implemented by message-like results that only carry content.
type ContentResult interface {
	MessageContent() string
}

// AIMessage is an assistant message returned by a chat model.
type AIMessage struct {
	Content string `json:"content"`
}

// MessageContent implements ContentResult.
func (m AIMessage) MessageContent() string { return m.Content }

// Generation is a plain completion result.
type Generation struct {
	Output string `json:"text"`
}

// Text implements TextResult.
func (g Generation) Text() string { return g.Output }

// ChatGeneration wraps a chat model message. Its text is the message content.
type ChatGeneration struct {
	Message AIMessage `json:"message"`
}

// Text implements TextResult.
func (g ChatGeneration) Text() string { return g.Message.Content }

// ResultText reduces a generation result to the string persisted in the cache.
// Text results win over content results; anything else, including nil
// pointers, is formatted with fmt.
func ResultText(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Sprint(v)
	}
	switch r := v.(type) {
	case TextResult:
		return r.Text()
	case ContentResult:
		return r.MessageContent()
	default:
		return fmt.Sprint(v)
	}
}
