package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcraft/internal/llm"
	"postcraft/internal/llm/stub"
	"postcraft/pkg/config"
	"postcraft/pkg/prompts"
)

func testPipeline(t *testing.T, provider llm.Provider, maxRetries int) *Pipeline {
	t.Helper()
	p, err := prompts.Default()
	require.NoError(t, err)
	client := llm.NewClient(provider, llm.ClientOptions{Defaults: llm.Params{MaxRetries: maxRetries}})
	return NewPipeline(p, client)
}

func requiredOnly() Fields {
	return Fields{
		FieldTranscript: "We talked about how recorded calls can become content.",
		FieldTopic:      "Turning calls into content",
	}
}

func TestServiceGetters(t *testing.T) {
	cfg := &config.Config{}
	svc := NewService(ServiceOptions{Config: cfg})

	if svc.Config() != cfg {
		t.Error("Config() returned wrong config")
	}
	if svc.Pipeline() != nil {
		t.Error("Pipeline() should return nil when set to nil")
	}
	if svc.Metrics() != nil {
		t.Error("Metrics() should return nil when set to nil")
	}
}

func TestSanitize(t *testing.T) {
	fields := Fields{
		`"6.Name"`:      `Acme's "best" tool`,
		FieldTopic:      "`code` topic",
		FieldTranscript: "plain",
	}

	got := Sanitize(fields)
	assert.Equal(t, Fields{
		"6.Name":        "Acmes best tool",
		FieldTopic:      "code topic",
		FieldTranscript: "plain",
	}, got)

	assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent")
	assert.Equal(t, `Acme's "best" tool`, fields[`"6.Name"`], "input must not be modified")
}

func TestParseFields(t *testing.T) {
	data := []byte(`{
		"12.Topic Name": "Topic",
		"14.array": [ {"name": "CTOs"}, "founders" ],
		"13.array": {"a": 1},
		"count": 3,
		"flag": true,
		"missing": null
	}`)

	fields, err := ParseFields(data)
	require.NoError(t, err)
	assert.Equal(t, "Topic", fields.Get(FieldTopic))
	assert.Equal(t, `[{"name":"CTOs"},"founders"]`, fields.Get(FieldAudience))
	assert.Equal(t, `{"a":1}`, fields.Get(FieldSolutions))
	assert.Equal(t, "3", fields.Get("count"))
	assert.Equal(t, "true", fields.Get("flag"))
	assert.True(t, fields.Has("missing"))
	assert.Equal(t, "", fields.Get("missing"))

	for _, bad := range []string{`[]`, `"text"`, `null`, `{`} {
		_, err := ParseFields([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType("Blog")
	require.NoError(t, err)
	assert.Equal(t, ContentBlog, ct)

	_, err = ParseContentType("video")
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestGenerateSocial(t *testing.T) {
	pipeline := testPipeline(t, stub.New(), 3)

	result, err := pipeline.Generate(context.Background(), ContentSocial, requiredOnly())
	require.NoError(t, err)

	assert.Equal(t, ContentSocial, result.ContentType)
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Title), 70)
	bodyLen := utf8.RuneCountInString(result.Body)
	assert.GreaterOrEqual(t, bodyLen, 500)
	assert.LessOrEqual(t, bodyLen, 2100)
	assert.Len(t, result.Hashtags, 3)
}

func TestGenerateBlog(t *testing.T) {
	pipeline := testPipeline(t, stub.New(), 3)

	result, err := pipeline.Generate(context.Background(), ContentBlog, requiredOnly())
	require.NoError(t, err)

	assert.Equal(t, ContentBlog, result.ContentType)
	assert.True(t, strings.HasPrefix(result.Body, "---"))
	assert.GreaterOrEqual(t, len(result.Hashtags), 3)
	assert.LessOrEqual(t, len(result.Hashtags), 5)
}

func TestGenerateMissingRequiredField(t *testing.T) {
	tests := []struct {
		name        string
		contentType ContentType
		drop        string
	}{
		{name: "socialWithoutTranscript", contentType: ContentSocial, drop: FieldTranscript},
		{name: "socialWithoutTopic", contentType: ContentSocial, drop: FieldTopic},
		{name: "blogWithoutTranscript", contentType: ContentBlog, drop: FieldTranscript},
		{name: "blogWithoutTopic", contentType: ContentBlog, drop: FieldTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := stub.New()
			pipeline := testPipeline(t, provider, 3)

			fields := requiredOnly()
			delete(fields, tt.drop)

			_, err := pipeline.Generate(context.Background(), tt.contentType, fields)
			require.ErrorIs(t, err, ErrValidation)

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.drop, missing.Field)
			assert.Equal(t, "Missing required field: "+tt.drop, err.Error())
			assert.Empty(t, provider.Requests(), "no completion must be requested")
		})
	}
}

func TestGenerateEmptyRequiredFieldIsPresent(t *testing.T) {
	pipeline := testPipeline(t, stub.New(), 1)

	_, err := pipeline.Generate(context.Background(), ContentSocial, Fields{FieldTranscript: "", FieldTopic: ""})
	assert.NoError(t, err)
}

func TestGenerateUnknownContentType(t *testing.T) {
	pipeline := testPipeline(t, stub.New(), 1)

	_, err := pipeline.Generate(context.Background(), ContentType("video"), requiredOnly())
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestGeneratePropagatesCompletionErrors(t *testing.T) {
	t.Run("generation", func(t *testing.T) {
		provider := stub.NewScripted(`{"title":"t","body":"too short","hashtags":["#a"]}`)
		pipeline := testPipeline(t, provider, 2)

		_, err := pipeline.Generate(context.Background(), ContentSocial, requiredOnly())
		require.ErrorIs(t, err, llm.ErrGeneration)
		assert.NotErrorIs(t, err, ErrValidation)
		assert.Len(t, provider.Requests(), 2)
	})

	t.Run("provider", func(t *testing.T) {
		boom := errors.New("connection reset")
		pipeline := testPipeline(t, stub.NewFailing(boom), 3)

		_, err := pipeline.Generate(context.Background(), ContentBlog, requiredOnly())
		require.ErrorIs(t, err, llm.ErrProvider)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, llm.ErrGeneration)
	})
}

func TestGenerateSendsSanitizedFields(t *testing.T) {
	provider := stub.New()
	pipeline := testPipeline(t, provider, 1)

	fields := requiredOnly()
	fields[FieldCompanyName] = `"Acme" Corp`
	fields[FieldTopic] = "The `best` topic"

	_, err := pipeline.Generate(context.Background(), ContentSocial, fields)
	require.NoError(t, err)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	msgs := requests[0].Messages
	assert.Contains(t, msgs[0].Content, "<company_name>Acme Corp</company_name>")
	assert.Contains(t, msgs[len(msgs)-1].Content, "The best topic")
}

func TestMissingOptionalFieldsRenderEmpty(t *testing.T) {
	p, err := prompts.Default()
	require.NoError(t, err)

	social, err := socialMessages(p, requiredOnly())
	require.NoError(t, err)
	blog, err := blogMessages(p, requiredOnly())
	require.NoError(t, err)

	for _, msgs := range [][]llm.Message{social, blog} {
		require.Len(t, msgs, 2)
		assert.Equal(t, llm.RoleSystem, msgs[0].Role)
		assert.Equal(t, llm.RoleUser, msgs[1].Role)
		assert.Contains(t, msgs[0].Content, "<company_name></company_name>")
		assert.NotContains(t, msgs[0].Content, "<no value>")
		assert.Contains(t, msgs[1].Content, "Turning calls into content")
	}
}

func TestBlogMessagesUseLongFormFields(t *testing.T) {
	p, err := prompts.Default()
	require.NoError(t, err)

	fields := requiredOnly()
	fields[FieldLongFormStyleGuide] = "long form guide"
	fields[FieldSocialStyleGuide] = "social guide"
	fields["11.Long Form Text Sample 2"] = "long sample"
	fields["11.Social Post Sample 1"] = "social sample"

	msgs, err := blogMessages(p, fields)
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "long form guide")
	assert.Contains(t, msgs[0].Content, "long sample")
	assert.NotContains(t, msgs[0].Content, "social guide")
	assert.NotContains(t, msgs[0].Content, "social sample")
}

func TestResultMarshalJSON(t *testing.T) {
	social, err := json.Marshal(&Result{ContentType: ContentSocial, Title: "t", Body: "b", Hashtags: []string{"#a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","body":"b","hashtags":["#a"]}`, string(social))

	blog, err := json.Marshal(Result{ContentType: ContentBlog, Title: "t", Body: "b", Hashtags: []string{"#a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","contentBody":"b","hashtags":["#a"]}`, string(blog))
}

func TestSaveResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	path, err := SaveResult(dir, &Result{ContentType: ContentBlog, Title: "Hello, World! 2025", Body: "b"}, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250314_092653_blog_hello_world_2025.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"contentBody": "b"`)

	path, err = SaveResult(dir, &Result{ContentType: ContentSocial, Title: "!!!"}, now)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_social_untitled.json"))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestID(ctx))
	assert.Equal(t, "abc", RequestID(WithRequestID(ctx, "abc")))
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}

	provider, err := NewProvider(ctx, llm.KindStub, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", provider.Name())

	_, err = NewProvider(ctx, llm.KindOpenAI, cfg, nil)
	assert.Error(t, err, "openai without key")

	_, err = NewProvider(ctx, llm.KindGroq, cfg, nil)
	assert.Error(t, err, "groq without key")

	_, err = NewProvider(ctx, llm.Kind("anthropic"), cfg, nil)
	assert.ErrorIs(t, err, llm.ErrUnsupportedProvider)

	provider, err = NewProvider(ctx, llm.KindOpenAI, &config.Config{OpenAIAPIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}

func TestBuildServiceDryRun(t *testing.T) {
	temperature := 0.7
	cfg := &config.Config{
		PromptsPath: filepath.Join(t.TempDir(), "missing.yaml"),
		LLM:         config.LLMConfig{Provider: "openai", Timeout: time.Minute},
		OpenAI:      config.ProviderConfig{DefaultModel: "gpt-4o-mini", Temperature: &temperature, MaxTokens: 1000, MaxRetries: 2},
		HTTP:        config.HTTPConfig{MaxRetries: 1, Timeout: time.Minute},
	}

	svc, err := BuildService(context.Background(), cfg, BuildOptions{DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, svc.Metrics())

	result, err := svc.Pipeline().Generate(context.Background(), ContentSocial, requiredOnly())
	require.NoError(t, err)
	assert.Len(t, result.Hashtags, 3)
}

func TestBuildServiceUnknownProvider(t *testing.T) {
	cfg := &config.Config{
		PromptsPath: filepath.Join(t.TempDir(), "missing.yaml"),
		LLM:         config.LLMConfig{Provider: "nope"},
	}

	_, err := BuildService(context.Background(), cfg, BuildOptions{})
	assert.ErrorIs(t, err, llm.ErrUnsupportedProvider)
}
