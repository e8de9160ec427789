package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every LLM environment variable.
const EnvPrefix = "STUDYBOT_"

// Config holds all LLM provider configuration. Field tags name the
// environment variables read by ConfigFromEnv, without EnvPrefix.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "scripted", "none"
	Provider string `env:"LLM_PROVIDER"`

	Anthropic  AnthropicConfig  `envPrefix:"ANTHROPIC_"`
	OpenAI     OpenAIConfig     `envPrefix:"OPENAI_"`
	Gemini     GeminiConfig     `envPrefix:"GEMINI_"`
	OpenRouter OpenRouterConfig `envPrefix:"OPENROUTER_"`
	Retry      RetryConfig      `envPrefix:"LLM_RETRY_"`

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration `env:"LLM_TIMEOUT"`
}

type AnthropicConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"` // OpenAI-compatible gateways
}

type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL"`
}

type OpenRouterConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS"`
	InitialWait time.Duration `env:"INITIAL_WAIT"`
	MaxWait     time.Duration `env:"MAX_WAIT"`
	Multiplier  float64       `env:"MULTIPLIER"`
}

const (
	// ProviderNone disables the LLM; coaching falls back to built-in messages.
	ProviderNone = "none"
	// ProviderScripted answers from an in-memory queue, for demos and tests.
	ProviderScripted = "scripted"
)

// DefaultConfig returns the configuration used when nothing is set. With
// no provider chosen the coach runs offline.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderNone,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// ConfigFromEnv overlays STUDYBOT_* environment variables on DefaultConfig.
// When no provider is named, the first vendor key found picks one.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse LLM env: %w", err)
	}
	if cfg.Provider == ProviderNone || cfg.Provider == "" {
		cfg.Provider = discoverProvider(cfg)
	}
	return cfg, nil
}

// discoverProvider picks the first provider with a key, in priority order
// Anthropic, OpenAI, Gemini, OpenRouter.
func discoverProvider(cfg Config) string {
	switch {
	case cfg.Anthropic.APIKey != "":
		return "anthropic"
	case cfg.OpenAI.APIKey != "":
		return "openai"
	case cfg.Gemini.APIKey != "":
		return "gemini"
	case cfg.OpenRouter.APIKey != "":
		return "openrouter"
	}
	return ProviderNone
}

// Enabled reports whether any provider is configured.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%s%s_API_KEY is required for the %s provider",
			EnvPrefix, strings.ToUpper(name), name)
	}
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return missing(c.Provider)
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return missing(c.Provider)
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return missing(c.Provider)
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return missing(c.Provider)
		}
	case ProviderScripted, ProviderNone, "":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
