package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/store"
)

// NewProvider builds the configured provider wrapped as
// Timeout → Retry → Record → vendor. It returns a nil Provider when the
// LLM is disabled. events may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *zap.Logger) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = newAnthropic(cfg.Anthropic)
	case "openai":
		base, err = newOpenAI(cfg.OpenAI)
	case "openrouter":
		base, err = newOpenRouter(cfg.OpenRouter)
	case "gemini":
		base, err = newGemini(ctx, cfg.Gemini)
	case ProviderScripted:
		base = NewScripted()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	return Chain(base, Timeout(cfg.Timeout), Retry(cfg.Retry), Record(events, log)), nil
}
