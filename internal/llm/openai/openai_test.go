package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcraft/internal/llm"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func testRequest() llm.Request {
	return llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "system"},
			{Role: llm.RoleUser, Content: "first"},
			{Role: llm.RoleAssistant, Content: "bad"},
			{Role: llm.RoleUser, Content: "fix it"},
		},
		Schema: llm.SchemaSpec{
			Name:        "note",
			Description: "A note",
			JSON:        json.RawMessage(`{"type":"object","properties":{"text":{"type":"string","maxLength":10}}}`),
		},
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   256,
	}
}

func TestComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"text":"hi"}`))
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	require.NoError(t, err)

	got, err := p.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, got)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.2, body["temperature"], 0.0001)
	assert.EqualValues(t, 256, body["max_tokens"])

	msgs, _ := body["messages"].([]any)
	require.Len(t, msgs, 4)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i], _ = m.(map[string]any)["role"].(string)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)

	format, _ := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema, _ := format["json_schema"].(map[string]any)
	assert.Equal(t, "note", schema["name"])
	assert.Equal(t, false, schema["strict"])
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload any
	}{
		{name: "serverError", status: http.StatusInternalServerError, payload: map[string]any{"error": map[string]any{"message": "boom"}}},
		{name: "unauthorized", status: http.StatusUnauthorized, payload: map[string]any{"error": map[string]any{"message": "bad key"}}},
		{name: "noChoices", status: http.StatusOK, payload: map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.payload)
			}))
			defer server.Close()

			p, err := New(Config{APIKey: "test-key", BaseURL: server.URL + "/", HTTPClient: server.Client()})
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), testRequest())
			assert.Error(t, err)
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
