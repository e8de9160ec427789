// Package llm asks hosted language models for short structured texts.
// Each vendor sits behind Provider; middleware adds timeouts, retries and
// request recording around it.
package llm

import (
	"context"
	"encoding/json"
)

// Provider completes a single-turn prompt.
type Provider interface {
	// Complete sends the prompt and returns the model output. When the
	// prompt carries a Schema, the output has been validated against it.
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Name is the vendor name recorded with each request.
	Name() string

	// Model is the configured model id.
	Model() string
}

// Prompt is one request.
type Prompt struct {
	System string
	User   string

	// Schema asks for JSON output in the vendor's structured mode. Nil
	// means plain text.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // 0 leaves the vendor default
}

// Schema is a named JSON Schema document.
type Schema struct {
	// Name must be kebab-case; some vendors use it as an identifier.
	Name        string
	Description string
	Definition  map[string]any
}

// Completion is a model reply.
type Completion struct {
	// JSON is the structured output, or the text quoted as-is when the
	// prompt had no schema.
	JSON json.RawMessage

	Model        string
	InputTokens  int
	OutputTokens int

	// Truncated is set when the reply hit MaxTokens.
	Truncated bool
}

// finish validates a vendor reply before it is returned.
func finish(p Prompt, c *Completion) (*Completion, error) {
	if p.Schema == nil {
		return c, nil
	}
	if c.Truncated {
		return nil, &Error{Kind: Truncated, Body: c.JSON}
	}
	if err := validate(p.Schema, c.JSON); err != nil {
		return nil, err
	}
	return c, nil
}
