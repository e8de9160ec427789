package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var geminiAliases = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, cfg GeminiConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &geminiProvider{client: client, model: alias(cfg.Model, geminiAliases)}, nil
}

func (p *geminiProvider) Name() string  { return "gemini" }
func (p *geminiProvider) Model() string { return p.model }

func (p *geminiProvider) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	gc := &genai.GenerateContentConfig{MaxOutputTokens: int32(pr.MaxTokens)}
	if pr.Temperature > 0 {
		t := float32(pr.Temperature)
		gc.Temperature = &t
	}
	if pr.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: pr.System}}}
	}
	if pr.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = geminiSchema(pr.Schema.Definition)
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: pr.User}}}}
	res, err := p.client.Models.GenerateContent(ctx, p.model, contents, gc)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classify(apiErr.Code, nil, err)
		}
		return nil, &Error{Kind: Unavailable, Err: err}
	}

	c := &Completion{JSON: reply(pr, res.Text()), Model: p.model}
	if u := res.UsageMetadata; u != nil {
		c.InputTokens = int(u.PromptTokenCount)
		c.OutputTokens = int(u.CandidatesTokenCount)
	}
	if len(res.Candidates) > 0 {
		c.Truncated = res.Candidates[0].FinishReason == "MAX_TOKENS"
	}
	return finish(pr, c)
}
