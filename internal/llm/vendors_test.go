package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tipSchema = &Schema{
	Name: "test-tip",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
			"tip":     map[string]any{"type": "string"},
		},
		"required":             []any{"message", "tip"},
		"additionalProperties": false,
	},
}

func serve(t *testing.T, status int, body any, seen *map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func anthropicReply(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 40, "output_tokens": 12},
	}
}

func openAIReply(content, finish string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 9, "total_tokens": 39},
	}
}

func TestAnthropic_StructuredReply(t *testing.T) {
	var seen map[string]any
	url := serve(t, http.StatusOK, anthropicReply(`{"message":"Stretch!","tip":"Roll your shoulders."}`, "end_turn"), &seen)
	p, err := newAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: url})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.Model())

	c, err := p.Complete(context.Background(), Prompt{
		System: "You are a study coach.", User: "Break now.", Schema: tipSchema, MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Stretch!","tip":"Roll your shoulders."}`, string(c.JSON))
	assert.Equal(t, 40, c.InputTokens)
	assert.Equal(t, 12, c.OutputTokens)
	assert.False(t, c.Truncated)
	assert.Equal(t, "claude-haiku-4-5-20251001", seen["model"])
}

func TestAnthropic_PlainTextIsQuoted(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply("Great job today.", "end_turn"), nil)
	p, err := newAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: url})
	require.NoError(t, err)

	c, err := p.Complete(context.Background(), Prompt{User: "Say something nice.", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, `"Great job today."`, string(c.JSON))
}

func TestAnthropic_ErrorKinds(t *testing.T) {
	apiErr := map[string]any{"type": "error", "error": map[string]any{"type": "x", "message": "nope"}}
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, RateLimited},
		{http.StatusInternalServerError, Unavailable},
		{http.StatusUnauthorized, Rejected},
	}
	for _, tt := range tests {
		url := serve(t, tt.status, apiErr, nil)
		p, err := newAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: url})
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), Prompt{User: "hi", MaxTokens: 16})
		kind, ok := KindOf(err)
		require.True(t, ok, "status %d: %v", tt.status, err)
		assert.Equal(t, tt.want, kind, "status %d", tt.status)
	}
}

func TestAnthropic_TruncatedStructuredReply(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply(`{"message":"Stre`, "max_tokens"), nil)
	p, err := newAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Prompt{User: "hi", Schema: tipSchema, MaxTokens: 4})
	kind, _ := KindOf(err)
	assert.Equal(t, Truncated, kind)
}

func TestOpenAI_StructuredReply(t *testing.T) {
	var seen map[string]any
	url := serve(t, http.StatusOK, openAIReply(`{"message":"Nice work.","tip":"Drink some water."}`, "stop"), &seen)
	p, err := newOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	c, err := p.Complete(context.Background(), Prompt{
		System: "coach", User: "End of session.", Schema: tipSchema, MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, 30, c.InputTokens)
	assert.Equal(t, "gpt-4o-mini", c.Model)

	msgs, _ := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	format, _ := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAI_SchemaMismatch(t *testing.T) {
	url := serve(t, http.StatusOK, openAIReply(`{"message":"no tip"}`, "stop"), nil)
	p, err := newOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Prompt{User: "x", Schema: tipSchema, MaxTokens: 32})
	kind, _ := KindOf(err)
	assert.Equal(t, Invalid, kind)
}

func TestOpenAI_RateLimited(t *testing.T) {
	url := serve(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
	}, nil)
	p, err := newOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Prompt{User: "x", MaxTokens: 32})
	kind, _ := KindOf(err)
	assert.Equal(t, RateLimited, kind)
}

func TestOpenRouter_Defaults(t *testing.T) {
	p, err := newOpenRouter(OpenRouterConfig{APIKey: "k", Model: "google/gemini-2.0-flash-001"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", p.Name())
	assert.Equal(t, "google/gemini-2.0-flash-001", p.Model())

	_, err = newOpenRouter(OpenRouterConfig{})
	assert.Error(t, err)
}
