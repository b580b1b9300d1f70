package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"postcraft/internal/llm"
	"postcraft/internal/llm/gemini"
	"postcraft/internal/llm/groq"
	"postcraft/internal/llm/openai"
	"postcraft/internal/llm/stub"
	"postcraft/internal/metrics"
	"postcraft/pkg/config"
	"postcraft/pkg/httputil"
	"postcraft/pkg/prompts"
)

type BuildOptions struct {
	// DryRun swaps the configured provider for the offline stub.
	DryRun bool
}

func BuildService(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Service, error) {
	p, err := prompts.LoadFrom(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}

	kind, err := llm.ParseKind(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		kind = llm.KindStub
	}

	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.HTTP.MaxRetries
	httpClient := httputil.NewClient(cfg.HTTP.Timeout, retry)

	provider, err := NewProvider(ctx, kind, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	settings := cfg.Provider()
	var temperature float64
	if settings.Temperature != nil {
		temperature = *settings.Temperature
	}

	collector := metrics.NewCollector()
	client := llm.NewClient(provider, llm.ClientOptions{
		Defaults: llm.Params{
			Model:       settings.DefaultModel,
			Temperature: temperature,
			MaxTokens:   settings.MaxTokens,
			MaxRetries:  settings.MaxRetries,
		},
		Timeout: cfg.LLM.Timeout,
		Metrics: collector,
	})

	slog.Info("LLM provider ready", "provider", provider.Name(), "model", settings.DefaultModel, "max_retries", settings.MaxRetries)

	return NewService(ServiceOptions{
		Config:   cfg,
		Pipeline: NewPipeline(p, client),
		Metrics:  collector,
	}), nil
}

// NewProvider builds the backend for kind. All network providers share
// httpClient.
func NewProvider(ctx context.Context, kind llm.Kind, cfg *config.Config, httpClient *http.Client) (llm.Provider, error) {
	switch kind {
	case llm.KindOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			HTTPClient: httpClient,
		})
	case llm.KindGroq:
		return groq.New(groq.Config{
			APIKey:     cfg.GroqAPIKey,
			BaseURL:    cfg.Groq.BaseURL,
			HTTPClient: httpClient,
		})
	case llm.KindGemini:
		return gemini.New(ctx, gemini.Config{
			Project:    cfg.GCPProject,
			Location:   cfg.GCPLocation,
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.Gemini.BaseURL,
			HTTPClient: httpClient,
		})
	case llm.KindStub:
		return stub.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", llm.ErrUnsupportedProvider, kind)
	}
}
