// Package coach writes break and end-of-session messages for learners.
// It asks an LLM when one is configured and falls back to built-in
// messages on any failure.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/llm"
	"github.com/aranyoray/studybot/internal/skill"
)

// Kind is the moment a message is written for.
type Kind string

const (
	KindBreak      Kind = "break"
	KindSessionEnd Kind = "session-end"
)

const (
	SourceLLM     = "llm"
	SourceBuiltin = "builtin"
)

// Situation describes the learner's state when a message is needed.
type Situation struct {
	Kind              Kind
	Tone              skill.FeedbackTone
	Level             engagement.Level
	Condition         fusion.Condition
	Accuracy          float64 // 0–1
	QuestionsAnswered int
	MinutesElapsed    float64
	BreakSeconds      int
	Frustration       *float64
}

// SessionView is the part of a running session a situation is read from.
type SessionView interface {
	Monitor() *fusion.Monitor
	Learner() *skill.LearnerModel
	Accuracy() float64
	AnswerCount() int
}

// SituationFor describes a running session at the given moment.
func SituationFor(kind Kind, sv SessionView) Situation {
	mon := sv.Monitor()
	met := mon.Metrics()
	th := mon.Thresholds()
	return Situation{
		Kind:              kind,
		Tone:              sv.Learner().Adaptive.FeedbackTone,
		Level:             met.EngagementLevel,
		Condition:         th.Condition,
		Accuracy:          sv.Accuracy(),
		QuestionsAnswered: sv.AnswerCount(),
		MinutesElapsed:    mon.MinutesElapsed(),
		BreakSeconds:      th.BreakDuration * 60,
		Frustration:       met.FrustrationLevel,
	}
}

// Message is a coaching message.
type Message struct {
	Text   string `json:"message"`
	Tip    string `json:"tip"`
	Source string `json:"source"`
}

// Config tunes LLM requests.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible request settings.
func DefaultConfig() Config {
	return Config{MaxTokens: 256, Temperature: 0.7}
}

// Coach produces coaching messages.
type Coach struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// New creates a Coach. A nil provider means built-in messages only.
func New(provider llm.Provider, cfg Config, log *zap.Logger) *Coach {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coach{provider: provider, cfg: cfg, log: log.Named("coach")}
}

// BreakMessage returns the message shown when a break starts.
func (c *Coach) BreakMessage(ctx context.Context, s Situation) Message {
	s.Kind = KindBreak
	return c.message(ctx, s)
}

// SessionMessage returns the message shown when a session ends.
func (c *Coach) SessionMessage(ctx context.Context, s Situation) Message {
	s.Kind = KindSessionEnd
	return c.message(ctx, s)
}

func (c *Coach) message(ctx context.Context, s Situation) Message {
	if s.Tone == "" {
		s.Tone = skill.ToneNeutral
	}
	if c.provider == nil {
		return Fallback(s)
	}
	m, err := c.generate(ctx, s)
	if err != nil {
		c.log.Info("using built-in coaching message", zap.String("kind", string(s.Kind)), zap.Error(err))
		return Fallback(s)
	}
	return m
}

type messageOutput struct {
	Message string `json:"message"`
	Tip     string `json:"tip"`
}

func (c *Coach) generate(ctx context.Context, s Situation) (Message, error) {
	ctx = llm.WithPurpose(ctx, "coach-"+string(s.Kind))

	resp, err := c.provider.Complete(ctx, llm.Prompt{
		System:      systemPrompt,
		User:        buildUserMessage(s),
		Schema:      MessageSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return Message{}, fmt.Errorf("coach generation: %w", err)
	}

	var out messageOutput
	if err := json.Unmarshal(resp.JSON, &out); err != nil {
		return Message{}, fmt.Errorf("parse coach response: %w", err)
	}
	if strings.TrimSpace(out.Message) == "" {
		return Message{}, fmt.Errorf("parse coach response: empty message")
	}
	return Message{Text: strings.TrimSpace(out.Message), Tip: strings.TrimSpace(out.Tip), Source: SourceLLM}, nil
}
