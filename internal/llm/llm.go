package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Kind selects a provider backend.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindGroq   Kind = "groq"
	KindGemini Kind = "gemini"
	KindStub   Kind = "stub"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOpenAI, KindGroq, KindGemini, KindStub:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Schema is implemented by every structured output type.
type Schema interface {
	SchemaName() string
	SchemaDescription() string
	Validate() error
}

// SchemaSpec is the machine-readable description of a Schema sent to the
// provider.
type SchemaSpec struct {
	Name        string
	Description string
	JSON        json.RawMessage
}

// Map returns the JSON Schema as a generic map for SDKs that take one.
func (s SchemaSpec) Map() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(s.JSON, &m)
	return m
}

// Request is a single round trip to a provider.
type Request struct {
	Messages    []Message
	Schema      SchemaSpec
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider is the channel to a remote model. Complete returns the raw text of
// the first choice; any error means the channel itself failed.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
