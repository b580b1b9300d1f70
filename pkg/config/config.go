package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"postcraft/internal/llm"
)

const (
	defaultConfigPath   = "config.yaml"
	defaultPromptsPath  = "prompts.yaml"
	defaultProvider     = "openai"
	defaultPort         = 5000
	defaultOpenAIModel  = "gpt-4o"
	defaultGroqModel    = "llama-3.3-70b-versatile"
	defaultGeminiModel  = "gemini-2.0-flash"
	defaultGCPLocation  = "us-central1"
	defaultTemperature  = 0.0
	defaultMaxRetries   = 5
	defaultLLMTimeout   = 120 * time.Second
	defaultHTTPRetries  = 2
	defaultHTTPTimeout  = 60 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

type Config struct {
	OpenAIAPIKey string `yaml:"-"`
	GroqAPIKey   string `yaml:"-"`
	GeminiAPIKey string `yaml:"-"`
	GCPProject   string `yaml:"-"`
	GCPLocation  string `yaml:"-"`
	PromptsPath  string `yaml:"-"`

	Server ServerConfig   `yaml:"server"`
	LLM    LLMConfig      `yaml:"llm"`
	OpenAI ProviderConfig `yaml:"openai"`
	Groq   ProviderConfig `yaml:"groq"`
	Gemini ProviderConfig `yaml:"gemini"`
	HTTP   HTTPConfig     `yaml:"http"`
}

type ServerConfig struct {
	Port         int   `yaml:"port"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider"` // "openai", "groq", "gemini" or "stub"
	Timeout  time.Duration `yaml:"timeout"`
}

// ProviderConfig holds the per-provider generation defaults. Temperature is a
// pointer so that an explicit 0 in config.yaml survives applyDefaults.
type ProviderConfig struct {
	APIKey       string   `yaml:"-"`
	DefaultModel string   `yaml:"default_model"`
	Temperature  *float64 `yaml:"temperature"`
	MaxTokens    int      `yaml:"max_tokens"`
	MaxRetries   int      `yaml:"max_retries"`
	BaseURL      string   `yaml:"base_url"`
}

type HTTPConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GCPProject:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation:  getEnvOrDefault("GOOGLE_CLOUD_LOCATION", defaultGCPLocation),
		PromptsPath:  getEnvOrDefault("PROMPTS_PATH", defaultPromptsPath),
	}

	if err := loadYAMLConfig(cfg, getEnvOrDefault("CONFIG_PATH", defaultConfigPath)); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := resolveSecrets(ctx, cfg); err != nil {
		return nil, err
	}

	cfg.OpenAI.APIKey = cfg.OpenAIAPIKey
	cfg.Groq.APIKey = cfg.GroqAPIKey
	cfg.Gemini.APIKey = cfg.GeminiAPIKey

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		cfg.Server.Port = port
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyLLMDefaults(cfg)
	applyProviderDefaults(&cfg.OpenAI, defaultOpenAIModel)
	applyProviderDefaults(&cfg.Groq, defaultGroqModel)
	applyProviderDefaults(&cfg.Gemini, defaultGeminiModel)
	applyHTTPDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
}

func applyLLMDefaults(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}
}

func applyProviderDefaults(p *ProviderConfig, model string) {
	if p.DefaultModel == "" {
		p.DefaultModel = model
	}
	if p.Temperature == nil {
		t := defaultTemperature
		p.Temperature = &t
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = defaultMaxRetries
	}
}

func applyHTTPDefaults(cfg *Config) {
	if cfg.HTTP.MaxRetries == 0 {
		cfg.HTTP.MaxRetries = defaultHTTPRetries
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = defaultHTTPTimeout
	}
}

// Validate checks that the selected provider is known and has credentials.
func (c *Config) Validate() error {
	kind, err := llm.ParseKind(c.LLM.Provider)
	if err != nil {
		return err
	}

	switch kind {
	case llm.KindOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case llm.KindGroq:
		if c.GroqAPIKey == "" {
			return errors.New("GROQ_API_KEY is required for the groq provider")
		}
	case llm.KindGemini:
		if c.GCPProject == "" && c.GeminiAPIKey == "" {
			return errors.New("GOOGLE_CLOUD_PROJECT or GEMINI_API_KEY is required for the gemini provider")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Provider returns the settings block for the configured provider.
func (c *Config) Provider() ProviderConfig {
	switch c.LLM.Provider {
	case "groq":
		return c.Groq
	case "gemini":
		return c.Gemini
	default:
		return c.OpenAI
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
