package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/llm"
	"github.com/aranyoray/studybot/internal/skill"
)

func TestBreakMessage_UsesLLM(t *testing.T) {
	scripted := llm.NewScripted(llm.Reply{
		JSON: `{"message":"Nice focus! Rest for five.","tip":"Walk to the window."}`,
	})
	c := New(scripted, DefaultConfig(), nil)

	m := c.BreakMessage(context.Background(), Situation{
		Tone:         skill.ToneEncouraging,
		Level:        engagement.LevelLow,
		BreakSeconds: 300,
	})
	assert.Equal(t, SourceLLM, m.Source)
	assert.Equal(t, "Nice focus! Rest for five.", m.Text)
	assert.Equal(t, "Walk to the window.", m.Tip)

	prompts := scripted.Prompts()
	require.Len(t, prompts, 1)
	assert.Same(t, MessageSchema, prompts[0].Schema)
	assert.Contains(t, prompts[0].User, "Break length: 300 seconds")
	assert.Contains(t, prompts[0].User, "Tone: encouraging")
}

func TestMessage_FallsBackOnError(t *testing.T) {
	scripted := llm.NewScripted(llm.Reply{Err: &llm.Error{Kind: llm.Unavailable, Err: errors.New("down")}})
	c := New(scripted, DefaultConfig(), nil)

	m := c.SessionMessage(context.Background(), Situation{
		Tone: skill.ToneDirective, Accuracy: 0.5, QuestionsAnswered: 8,
	})
	assert.Equal(t, SourceBuiltin, m.Source)
	assert.Equal(t, "You got 50% of 8 questions. Next time, read each one twice before answering.", m.Text)
}

func TestMessage_FallsBackOnEmptyOrMalformed(t *testing.T) {
	scripted := llm.NewScripted(
		llm.Reply{JSON: `{"message":"  ","tip":"x"}`},
		llm.Reply{JSON: `not json`},
	)
	c := New(scripted, DefaultConfig(), nil)

	for range 2 {
		m := c.BreakMessage(context.Background(), Situation{BreakSeconds: 120})
		assert.Equal(t, SourceBuiltin, m.Source)
		assert.Equal(t, "Time for a 2 minute break.", m.Text)
	}
}

func TestMessage_NilProvider(t *testing.T) {
	c := New(nil, DefaultConfig(), nil)
	m := c.SessionMessage(context.Background(), Situation{})
	assert.Equal(t, SourceBuiltin, m.Source)
	assert.True(t, strings.HasPrefix(m.Text, "Thanks for stopping by"))
}

func TestFallback_Break(t *testing.T) {
	tests := []struct {
		tone skill.FeedbackTone
		secs int
		want string
	}{
		{skill.ToneEncouraging, 300, "You've been working hard. Take 5 minutes to rest, you've earned it."},
		{skill.ToneDirective, 90, "Pause here for 2 minutes. We'll pick up with the next question after."},
		{skill.ToneNeutral, 0, "Time for a 1 minute break."},
	}
	for _, tt := range tests {
		m := Fallback(Situation{Kind: KindBreak, Tone: tt.tone, BreakSeconds: tt.secs})
		if m.Text != tt.want {
			t.Errorf("Fallback(%s, %ds) = %q, want %q", tt.tone, tt.secs, m.Text, tt.want)
		}
	}
}

func TestFallback_TipsFollowCondition(t *testing.T) {
	adhd := Fallback(Situation{Kind: KindBreak, Condition: fusion.ConditionADHD})
	anxiety := Fallback(Situation{Kind: KindBreak, Condition: fusion.ConditionAnxiety})
	assert.Contains(t, adhd.Tip, "stretch")
	assert.Contains(t, anxiety.Tip, "Breathe")

	f := 75.0
	end := Fallback(Situation{Kind: KindSessionEnd, QuestionsAnswered: 5, Accuracy: 0.4, Frustration: &f})
	assert.Contains(t, end.Tip, "warm-up")

	good := Fallback(Situation{Kind: KindSessionEnd, QuestionsAnswered: 5, Accuracy: 0.9})
	assert.Contains(t, good.Tip, "harder")
}

type fakeSession struct {
	mon     *fusion.Monitor
	learner *skill.LearnerModel
}

func (f fakeSession) Monitor() *fusion.Monitor { return f.mon }
func (f fakeSession) Learner() *skill.LearnerModel { return f.learner }
func (f fakeSession) Accuracy() float64 { return 0.75 }
func (f fakeSession) AnswerCount() int { return 8 }

func TestSituationFor(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	th, ok := fusion.Profile(fusion.ConditionADHD)
	require.True(t, ok)
	mon := fusion.NewMonitor(engagement.NewTracker(engagement.DefaultConfig(), clock), th, clock)
	learner := skill.NewLearnerModel("u1", start)
	now = start.Add(6 * time.Minute)

	sit := SituationFor(KindBreak, fakeSession{mon: mon, learner: learner})
	assert.Equal(t, KindBreak, sit.Kind)
	assert.Equal(t, fusion.ConditionADHD, sit.Condition)
	assert.Equal(t, th.BreakDuration*60, sit.BreakSeconds)
	assert.Equal(t, 8, sit.QuestionsAnswered)
	assert.InDelta(t, 0.75, sit.Accuracy, 1e-9)
	assert.InDelta(t, 6.0, sit.MinutesElapsed, 1e-9)
	assert.Equal(t, learner.Adaptive.FeedbackTone, sit.Tone)
}
