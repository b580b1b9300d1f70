package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcraft/internal/llm"
)

func newTestProvider(t *testing.T, server *httptest.Server) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)

		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"text\":"},{"text":"\"hi\"}"}]}}]}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server)
	got, err := p.Complete(context.Background(), llm.Request{
		Model: "gemini-2.0-flash",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be brief"},
			{Role: llm.RoleUser, Content: "write"},
			{Role: llm.RoleAssistant, Content: "bad"},
			{Role: llm.RoleUser, Content: "again"},
		},
		Schema: llm.SchemaSpec{
			Name: "note",
			JSON: []byte(`{"type":"object","properties":{"text":{"type":"string","maxLength":10}},"required":["text"]}`),
		},
		Temperature: 0.5,
		MaxTokens:   128,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, got)

	contents, _ := body["contents"].([]any)
	require.Len(t, contents, 3)
	roles := make([]string, len(contents))
	for i, c := range contents {
		roles[i], _ = c.(map[string]any)["role"].(string)
	}
	assert.Equal(t, []string{"user", "model", "user"}, roles)
	assert.Contains(t, body, "systemInstruction")

	config, _ := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", config["responseMimeType"])
	assert.EqualValues(t, 128, config["maxOutputTokens"])

	schema, _ := config["responseJsonSchema"].(map[string]any)
	require.NotNil(t, schema, "generationConfig should carry the response schema")
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"text"}, schema["required"])
}

func TestCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(t, server).Complete(context.Background(), llm.Request{
		Model:    "gemini-2.0-flash",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "write"}},
	})
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	system, contents := split([]llm.Message{{Role: llm.RoleUser, Content: "only"}})
	assert.Nil(t, system)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
