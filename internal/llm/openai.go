package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openAIProvider serves OpenAI and any OpenAI-compatible gateway.
type openAIProvider struct {
	name   string
	client *openai.Client
	model  string
}

func newOpenAI(cfg OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	return newOpenAICompatible("openai", cfg.APIKey, cfg.BaseURL, cfg.Model), nil
}

// newOpenRouter keeps vendor-prefixed model ids such as
// "google/gemini-2.0-flash-001" as they are.
func newOpenRouter(cfg OpenRouterConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = openRouterBaseURL
	}
	return newOpenAICompatible("openrouter", cfg.APIKey, base, cfg.Model), nil
}

func newOpenAICompatible(name, key, baseURL, model string) *openAIProvider {
	c := openai.DefaultConfig(key)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return &openAIProvider{name: name, client: openai.NewClientWithConfig(c), model: model}
}

func (p *openAIProvider) Name() string  { return p.name }
func (p *openAIProvider) Model() string { return p.model }

func (p *openAIProvider) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: pr.MaxTokens,
		Temperature:         float32(pr.Temperature),
	}
	if pr.System != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: pr.System,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: pr.User,
	})
	if pr.Schema != nil {
		def, err := json.Marshal(pr.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("encode schema %s: %w", pr.Schema.Name, err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        pr.Schema.Name,
				Description: pr.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: Invalid, Err: errors.New("reply has no choices")}
	}
	choice := resp.Choices[0]

	return finish(pr, &Completion{
		JSON:         reply(pr, choice.Message.Content),
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Truncated:    choice.FinishReason == openai.FinishReasonLength,
	})
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classify(apiErr.HTTPStatusCode, nil, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classify(reqErr.HTTPStatusCode, nil, err)
	}
	return &Error{Kind: Unavailable, Err: err}
}
