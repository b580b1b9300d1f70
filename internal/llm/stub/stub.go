// Package stub is an offline provider. It returns canned, valid content for
// the known schemas or replays a scripted list of raw responses.
package stub

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"postcraft/internal/llm"
)

//go:embed samples/social.md
var socialSample string

//go:embed samples/blog.md
var blogSample string

var _ llm.Provider = (*Provider)(nil)

// Provider answers completion requests without a network call. It is safe
// for concurrent use.
type Provider struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []llm.Request
}

// New returns a provider that serves canned content by schema name.
func New() *Provider {
	return &Provider{}
}

// NewScripted returns a provider that replays responses in order and then
// keeps repeating the last one.
func NewScripted(responses ...string) *Provider {
	return &Provider{responses: responses}
}

// NewFailing returns a provider whose every call fails with err.
func NewFailing(err error) *Provider {
	return &Provider{err: err}
}

func (p *Provider) Name() string {
	return string(llm.KindStub)
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.err != nil {
		return "", p.err
	}

	if len(p.responses) > 0 {
		resp := p.responses[0]
		if len(p.responses) > 1 {
			p.responses = p.responses[1:]
		}
		return resp, nil
	}

	return canned(req.Schema.Name)
}

// Requests returns a copy of every request seen so far.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

func canned(schema string) (string, error) {
	var payload map[string]any
	switch schema {
	case "social_post":
		payload = map[string]any{
			"title":    "Your best post is hiding in last week's calls",
			"body":     strings.TrimSpace(socialSample),
			"hashtags": []string{"#ContentMarketing", "#CallTranscripts", "#VoiceToPost"},
		}
	case "blog_post":
		payload = map[string]any{
			"title":       "Turn Call Transcripts Into Content That Ranks",
			"contentBody": strings.TrimSpace(blogSample),
			"hashtags":    []string{"#ContentStrategy", "#SEO", "#CallTranscripts", "#B2BMarketing"},
		}
	default:
		return "", fmt.Errorf("no canned response for schema %q", schema)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal canned %s: %w", schema, err)
	}
	return string(data), nil
}
