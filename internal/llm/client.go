package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postcraft/internal/metrics"
)

const (
	schemaInstruction = "Respond with a single JSON object named %q and nothing else. " +
		"It must conform to the JSON Schema below, including every length and item-count limit.\n\n%s"
	correctionInstruction = "Your previous response was rejected:\n%s\n\n" +
		"Return a corrected JSON object that satisfies every constraint of the schema."
)

// Target constrains T so that *T is a Schema.
type Target[T any] interface {
	*T
	Schema
}

// Params are the generation settings for one Complete call.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxRetries is the total number of attempts the model gets to produce a
	// valid instance.
	MaxRetries int
}

type Option func(*Params)

func WithModel(model string) Option {
	return func(p *Params) { p.Model = model }
}

func WithTemperature(t float64) Option {
	return func(p *Params) { p.Temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(p *Params) { p.MaxTokens = n }
}

func WithMaxRetries(n int) Option {
	return func(p *Params) { p.MaxRetries = n }
}

type ClientOptions struct {
	Defaults Params
	// Timeout bounds a whole Complete call including retries. Zero disables it.
	Timeout time.Duration
	Metrics metrics.Collector
}

// Client turns a Provider into a source of validated structured outputs. It
// keeps no state between calls and is safe for concurrent use.
type Client struct {
	provider Provider
	defaults Params
	timeout  time.Duration
	metrics  metrics.Collector
}

func NewClient(provider Provider, opts ClientOptions) *Client {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Defaults.MaxRetries < 1 {
		opts.Defaults.MaxRetries = 1
	}
	return &Client{
		provider: provider,
		defaults: opts.Defaults,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
	}
}

func (c *Client) Provider() Provider {
	return c.provider
}

func (c *Client) params(opts []Option) Params {
	p := c.defaults
	for _, opt := range opts {
		opt(&p)
	}
	if p.MaxRetries < 1 {
		p.MaxRetries = 1
	}
	return p
}

// Complete asks the provider for an instance of T until one passes
// validation or the attempt budget is spent. A returned value always
// satisfies T.Validate. Provider failures are returned immediately as
// *ProviderError; exhausting the budget yields *GenerationError.
func Complete[T any, PT Target[T]](ctx context.Context, c *Client, messages []Message, opts ...Option) (*T, error) {
	if err := checkMessages(messages); err != nil {
		return nil, err
	}

	spec, err := Describe[T, PT]()
	if err != nil {
		return nil, err
	}

	params := c.params(opts)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	conversation := withSchemaInstruction(messages, spec)

	var lastErr error
	for attempt := 1; attempt <= params.MaxRetries; attempt++ {
		slog.Debug("Requesting completion", "provider", c.provider.Name(), "schema", spec.Name, "attempt", attempt, "model", params.Model)

		raw, err := c.provider.Complete(ctx, Request{
			Messages:    conversation,
			Schema:      spec,
			Model:       params.Model,
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		})
		if err != nil {
			c.metrics.RecordAttempt(ctx, spec.Name, metrics.OutcomeProviderError)
			c.metrics.RecordCompletion(ctx, spec.Name, metrics.StatusProviderFailure, time.Since(start))
			return nil, &ProviderError{Provider: c.provider.Name(), Err: err}
		}

		candidate := PT(new(T))
		if err := decode(raw, candidate); err != nil {
			slog.Warn("Completion attempt failed validation", "schema", spec.Name, "attempt", attempt, "max", params.MaxRetries, "error", err)
			c.metrics.RecordAttempt(ctx, spec.Name, metrics.OutcomeInvalid)
			lastErr = err
			conversation = withCorrection(conversation, raw, err)
			continue
		}

		c.metrics.RecordAttempt(ctx, spec.Name, metrics.OutcomeValid)
		c.metrics.RecordCompletion(ctx, spec.Name, metrics.StatusSuccess, time.Since(start))
		return (*T)(candidate), nil
	}

	c.metrics.RecordCompletion(ctx, spec.Name, metrics.StatusGenerationFailure, time.Since(start))
	return nil, &GenerationError{Schema: spec.Name, Attempts: params.MaxRetries, Err: lastErr}
}

func checkMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidMessages)
	}
	for i, m := range messages {
		if m.Role != RoleSystem && m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidMessages, i, m.Role)
		}
	}
	if last := messages[len(messages)-1]; last.Role != RoleUser {
		return fmt.Errorf("%w: last message must be from the user, got %q", ErrInvalidMessages, last.Role)
	}
	return nil
}

// withSchemaInstruction copies messages and adds the schema to the leading
// system message, creating one when absent.
func withSchemaInstruction(messages []Message, spec SchemaSpec) []Message {
	instruction := fmt.Sprintf(schemaInstruction, spec.Name, spec.JSON)

	out := make([]Message, 0, len(messages)+1)
	if messages[0].Role == RoleSystem {
		out = append(out, Message{
			Role:    RoleSystem,
			Content: strings.TrimRight(messages[0].Content, "\n") + "\n\n" + instruction,
		})
		return append(out, messages[1:]...)
	}

	out = append(out, Message{Role: RoleSystem, Content: instruction})
	return append(out, messages...)
}

func withCorrection(conversation []Message, raw string, problem error) []Message {
	out := make([]Message, len(conversation), len(conversation)+2)
	copy(out, conversation)
	return append(out,
		Message{Role: RoleAssistant, Content: raw},
		Message{Role: RoleUser, Content: fmt.Sprintf(correctionInstruction, problem)},
	)
}
