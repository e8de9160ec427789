package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicAliases = map[string]string{
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-5-20250929",
}

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropic(cfg AnthropicConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries happen in the Retry middleware.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  alias(cfg.Model, anthropicAliases),
	}, nil
}

func (p *anthropicProvider) Name() string  { return "anthropic" }
func (p *anthropicProvider) Model() string { return p.model }

func (p *anthropicProvider) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(pr.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(pr.User)),
		},
	}
	if pr.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: pr.System}}
	}
	if pr.Temperature > 0 {
		params.Temperature = anthropic.Float(pr.Temperature)
	}
	if pr.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: pr.Schema.Definition},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			var h http.Header
			if apiErr.Response != nil {
				h = apiErr.Response.Header
			}
			return nil, classify(apiErr.StatusCode, h, err)
		}
		return nil, &Error{Kind: Unavailable, Err: err}
	}

	var text string
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			text, found = block.Text, true
			break
		}
	}
	if !found {
		return nil, &Error{Kind: Invalid, Err: fmt.Errorf("no text block in reply")}
	}

	return finish(pr, &Completion{
		JSON:         reply(pr, text),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		Truncated:    msg.StopReason == anthropic.StopReasonMaxTokens,
	})
}

// reply wraps plain text as a JSON string when no schema was requested.
func reply(pr Prompt, text string) json.RawMessage {
	if pr.Schema != nil {
		return json.RawMessage(text)
	}
	b, _ := json.Marshal(text)
	return b
}

// alias resolves a short model name; unknown names pass through as ids.
func alias(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
