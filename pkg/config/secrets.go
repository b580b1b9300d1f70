package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretAccessor func(ctx context.Context, name string) (string, error)

// accessSecret is swapped in tests.
var accessSecret secretAccessor = accessSecretManager

// resolveSecrets fills empty API keys from GCP Secret Manager when a project is
// configured. Keys already present in the environment always win.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	if cfg.GCPProject == "" {
		return nil
	}

	targets := []struct {
		secret string
		dst    *string
	}{
		{"OPENAI_API_KEY", &cfg.OpenAIAPIKey},
		{"GROQ_API_KEY", &cfg.GroqAPIKey},
	}

	for _, target := range targets {
		if *target.dst != "" || !cfg.needsSecret(target.secret) {
			continue
		}

		name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", cfg.GCPProject, target.secret)
		value, err := accessSecret(ctx, name)
		if err != nil {
			return fmt.Errorf("access secret %s: %w", target.secret, err)
		}
		slog.Debug("Loaded secret from Secret Manager", "secret", target.secret)
		*target.dst = value
	}
	return nil
}

func (c *Config) needsSecret(secret string) bool {
	switch secret {
	case "OPENAI_API_KEY":
		return c.LLM.Provider == "openai"
	case "GROQ_API_KEY":
		return c.LLM.Provider == "groq"
	}
	return false
}

func accessSecretManager(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}
