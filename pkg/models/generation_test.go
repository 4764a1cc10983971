package models

import "testing"

type stringer struct{ s string }

func (s stringer) String() string { return "stringer:" + s.s }

type both struct{}

func (both) Text() string           { return "from-text" }
func (both) MessageContent() string { return "from-content" }

func TestResultTextPrecedence(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"generation", Generation{Output: "plain"}, "plain"},
		{"chat generation", ChatGeneration{Message: AIMessage{Content: "chat"}}, "chat"},
		{"message", AIMessage{Content: "msg"}, "msg"},
		{"text beats content", both{}, "from-text"},
		{"string", "raw", "raw"},
		{"int", 42, "42"},
		{"stringer", stringer{s: "x"}, "stringer:x"},
		{"pointer to chat generation", &ChatGeneration{Message: AIMessage{Content: "ptr"}}, "ptr"},
		{"nil pointer", (*ChatGeneration)(nil), "<nil>"},
		{"nil message pointer", (*AIMessage)(nil), "<nil>"},
		{"nil", nil, "<nil>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResultText(tc.in); got != tc.want {
				t.Errorf("ResultText(%#v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
