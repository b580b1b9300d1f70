package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"postcraft/internal/llm"
)

var _ llm.Provider = (*Provider)(nil)

// Config selects the Vertex AI backend when Project is set and the Gemini
// API backend otherwise.
type Config struct {
	Project    string
	Location   string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Provider struct {
	client *genai.Client
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	cc := &genai.ClientConfig{
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	}

	switch {
	case cfg.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	case cfg.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, errors.New("gemini requires a GCP project or an api key")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return string(llm.KindGemini)
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	system, contents := split(req.Messages)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(req.Temperature)),
	}
	if len(req.Schema.JSON) > 0 {
		config.ResponseJsonSchema = req.Schema.Map()
	}
	if system != nil {
		config.SystemInstruction = system
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}

// split moves system messages into the system instruction and maps the rest
// onto Gemini's user and model roles.
func split(msgs []llm.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(msgs))

	for _, m := range msgs {
		part := &genai.Part{Text: m.Content}
		switch m.Role {
		case llm.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, part)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: []*genai.Part{part}})
		}
	}
	return system, contents
}
