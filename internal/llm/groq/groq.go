package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/conneroisu/groq-go"

	"postcraft/internal/llm"
)

var _ llm.Provider = (*Provider)(nil)

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Provider calls the Groq chat API in JSON mode. Groq has no schema-bound
// response format, so the schema travels in the system prompt only.
type Provider struct {
	client *groq.Client
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq api key missing")
	}

	var opts []groq.Opts
	if cfg.BaseURL != "" {
		opts = append(opts, groq.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, groq.WithClient(guardServerErrors(cfg.HTTPClient)))

	client, err := groq.NewClient(cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return string(llm.KindGroq)
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := p.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       groq.ChatModel(req.Model),
		Messages:    messages(req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	return resp.Choices[0].Message.Content, nil
}

// groq-go re-sends a chat completion on every 500/503 it sees, without limit.
// Retries belong to the shared transport, so any 5xx that survives it is
// turned into a plain error before the SDK can recurse on it.
type serverErrorTransport struct {
	base http.RoundTripper
}

func guardServerErrors(client *http.Client) *http.Client {
	guarded := &http.Client{}
	if client != nil {
		*guarded = *client
	}
	base := guarded.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	guarded.Transport = &serverErrorTransport{base: base}
	return guarded
}

func (t *serverErrorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusInternalServerError {
		return resp, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return nil, fmt.Errorf("groq returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func messages(msgs []llm.Message) []groq.ChatCompletionMessage {
	out := make([]groq.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := groq.RoleUser
		switch m.Role {
		case llm.RoleSystem:
			role = groq.RoleSystem
		case llm.RoleAssistant:
			role = groq.RoleAssistant
		}
		out = append(out, groq.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
