package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"postcraft/internal/content"
	"postcraft/internal/llm"
	"postcraft/pkg/prompts"
)

var (
	// ErrValidation marks request problems the caller can fix.
	ErrValidation         = errors.New("invalid request")
	ErrUnknownContentType = errors.New("unknown content type")
)

type ContentType string

const (
	ContentSocial ContentType = "social"
	ContentBlog   ContentType = "blog"
)

func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentSocial, ContentBlog:
		return ct, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
	}
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}

// Result is a validated piece of generated content.
type Result struct {
	ContentType ContentType
	Title       string
	Body        string
	Hashtags    []string
}

// MarshalJSON names the body "body" for social posts and "contentBody" for
// blog posts.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.ContentType == ContentBlog {
		return json.Marshal(struct {
			Title       string   `json:"title"`
			ContentBody string   `json:"contentBody"`
			Hashtags    []string `json:"hashtags"`
		}{r.Title, r.Body, r.Hashtags})
	}
	return json.Marshal(struct {
		Title    string   `json:"title"`
		Body     string   `json:"body"`
		Hashtags []string `json:"hashtags"`
	}{r.Title, r.Body, r.Hashtags})
}

type Pipeline struct {
	prompts *prompts.Prompts
	client  *llm.Client
}

func NewPipeline(p *prompts.Prompts, client *llm.Client) *Pipeline {
	return &Pipeline{prompts: p, client: client}
}

// Generate turns submitted fields into validated content of the given type.
// Missing required fields yield *MissingFieldError; completion failures are
// returned as the client reported them.
func (pipeline *Pipeline) Generate(ctx context.Context, contentType ContentType, fields Fields) (*Result, error) {
	log := slog.With("request_id", RequestID(ctx), "type", contentType)

	sanitized := Sanitize(fields)
	log.Debug("Fields sanitized", "count", len(sanitized))

	for _, key := range RequiredFields {
		if !sanitized.Has(key) {
			return nil, &MissingFieldError{Field: key}
		}
	}

	var (
		result *Result
		err    error
	)
	switch contentType {
	case ContentSocial:
		result, err = pipeline.social(ctx, log, sanitized)
	case ContentBlog:
		result, err = pipeline.blog(ctx, log, sanitized)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
	if err != nil {
		log.Debug("Generation failed", "error", err)
		return nil, err
	}

	log.Debug("Content validated", "title", result.Title, "hashtags", len(result.Hashtags))
	return result, nil
}

func (pipeline *Pipeline) social(ctx context.Context, log *slog.Logger, fields Fields) (*Result, error) {
	messages, err := socialMessages(pipeline.prompts, fields)
	if err != nil {
		return nil, err
	}
	log.Debug("Messages built", "count", len(messages))

	post, err := llm.Complete[content.SocialPost](ctx, pipeline.client, messages)
	if err != nil {
		return nil, fmt.Errorf("generate social post: %w", err)
	}

	return &Result{
		ContentType: ContentSocial,
		Title:       post.Title,
		Body:        post.Body,
		Hashtags:    post.Hashtags,
	}, nil
}

func (pipeline *Pipeline) blog(ctx context.Context, log *slog.Logger, fields Fields) (*Result, error) {
	messages, err := blogMessages(pipeline.prompts, fields)
	if err != nil {
		return nil, err
	}
	log.Debug("Messages built", "count", len(messages))

	post, err := llm.Complete[content.BlogPost](ctx, pipeline.client, messages)
	if err != nil {
		return nil, fmt.Errorf("generate blog post: %w", err)
	}

	return &Result{
		ContentType: ContentBlog,
		Title:       post.Title,
		Body:        post.ContentBody,
		Hashtags:    post.Hashtags,
	}, nil
}
