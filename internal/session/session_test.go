package session

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/skill"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := New(Config{
		ID:     "s-1",
		UserID: "u-1",
		Now:    clk.Now,
		Rand:   rand.New(rand.NewPCG(7, 7)),
	})
	return s, clk
}

func TestNew_Defaults(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Equal(t, "s-1", s.ID)
	assert.Equal(t, fusion.ConditionTypical, s.Monitor().Thresholds().Condition)
	assert.Equal(t, skill.DefaultEstimate(), s.Estimate())
	assert.False(t, s.Ended())

	generated := New(Config{UserID: "u"})
	assert.NotEmpty(t, generated.ID)
}

func TestNew_SeedsFromDiagnosticEstimate(t *testing.T) {
	est := skill.InitializeFromDiagnostic(skill.Diagnostic{
		WorkingMemory: 80, Attention: 70, ProcessingSpeed: 60, ExecutiveFunction: 75,
	})
	s := New(Config{UserID: "u", Estimate: &est})

	q := s.NextQuestion()
	assert.Equal(t, skill.TypeSequencing, q.Type)
	assert.InDelta(t, 78.1, q.Difficulty, 0.001)
}

func TestRecordAnswer_UpdatesEverything(t *testing.T) {
	s, clk := newTestSession(t)

	clk.Advance(5 * time.Second)
	s.RecordAnswer(Answer{Type: skill.TypeAddition, Correct: true, ResponseTimeMs: 2000})
	clk.Advance(5 * time.Second)
	s.RecordAnswer(Answer{Type: skill.TypeAddition, Correct: false, ResponseTimeMs: 12000})

	// 50*0.7 + (0.6 + 0.4*0.8)*100*0.3 = 35 + 27.6 = 62.6
	// 62.6*0.7 + (0 + 0)*0.3 = 43.82
	assert.InDelta(t, 43.82, s.Estimate().MathFluency, 0.001)
	assert.InDelta(t, 0.2, s.Estimate().Confidence, 0.001)
	assert.Equal(t, 2, s.Tracker().InteractionCount())
	assert.Len(t, s.Validator().ResponseTimes(), 2)
	assert.Equal(t, 1, s.Learner().Response.Hesitations)
	assert.InDelta(t, 0.5, s.Accuracy(), 0.001)

	r := s.Record()
	require.Len(t, r.ByType, 1)
	assert.Equal(t, 2, r.ByType[0].Attempts)
	assert.Equal(t, 1, r.ByType[0].Correct)
}

func TestRecentWindowBounded(t *testing.T) {
	s, _ := newTestSession(t)
	for i := 0; i < 12; i++ {
		s.RecordAnswer(Answer{Type: skill.TypeAddition, Correct: i >= 7, ResponseTimeMs: 3000})
	}
	assert.Len(t, s.recent, skill.RecentWindow)
	assert.Equal(t, []bool{true, true, true, true, true}, s.recent)
}

func TestApply_Events(t *testing.T) {
	s, clk := newTestSession(t)

	events := []Event{
		{Type: EventMouse, X: 0, Y: 0},
		{Type: EventMouse, X: 300, Y: 400},
		{Type: EventInteraction},
		{Type: EventFeature, Feature: &Feature{Expression: &fusion.ExpressionFeature{Frustration: 0.2}}},
		{Type: EventBlur},
		{Type: EventFocus},
		{Type: EventAnswer, Answer: &Answer{Type: skill.TypeRecognition, Correct: true, ResponseTimeMs: 1500}},
		{Type: EventCheck, Check: &CheckAnswer{CheckID: "sky", Answer: "Blue", ResponseTimeMs: 1800}},
		{Type: EventSkip},
		{Type: EventBreak},
	}
	clk.Advance(time.Second)
	n, err := s.ApplyAll(events)
	require.NoError(t, err)
	assert.Equal(t, len(events), n)

	assert.InDelta(t, 500, s.Tracker().MouseDistance(), 0.001)
	assert.True(t, s.Monitor().Enabled(fusion.ModalityExpression))
	assert.Equal(t, 1, s.Monitor().Breaks())

	checks := s.Validator().Checks()
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Passed)

	r := s.Record()
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.BreaksTaken)
}

func TestApplyAll_TimestampedBatch(t *testing.T) {
	s, clk := newTestSession(t)
	t0 := clk.Now()
	clk.Advance(60 * time.Second)

	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }
	n, err := s.ApplyAll([]Event{
		{Type: EventInteraction, At: at(1)},
		{Type: EventBlur, At: at(2)},
		{Type: EventInteraction, At: at(5)},
		{Type: EventFocus, At: at(8)},
		{Type: EventInteraction, At: at(9)},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.False(t, s.Validator().DetectRapidClicking())
	// Focused for 2s, blurred for 6s, then focused until 60s: 54/60.
	assert.InDelta(t, 90.0, s.Tracker().AttentionScore(), 0.001)
	assert.Equal(t, 3, s.Tracker().InteractionCount())
}

func TestApplyAll_TimestampedMouseSampling(t *testing.T) {
	s, clk := newTestSession(t)
	t0 := clk.Now()
	clk.Advance(10 * time.Second)

	var batch []Event
	for _, sec := range []int{1, 2, 3, 5} {
		batch = append(batch, Event{Type: EventMouse, X: float64(sec * 10), Y: 0, At: t0.Add(time.Duration(sec) * time.Second)})
	}
	_, err := s.ApplyAll(batch)
	require.NoError(t, err)

	snaps := s.Tracker().Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, t0.Add(1*time.Second), snaps[0].Timestamp)
	assert.Equal(t, t0.Add(3*time.Second), snaps[1].Timestamp)
	assert.Equal(t, t0.Add(5*time.Second), snaps[2].Timestamp)
}

func TestApply_EventTimeClamped(t *testing.T) {
	s, clk := newTestSession(t)
	t0 := clk.Now()
	clk.Advance(10 * time.Second)

	require.NoError(t, s.Apply(Event{Type: EventInteraction, At: t0.Add(6 * time.Second)}))
	// Earlier than the previous event, and later than the wall clock.
	require.NoError(t, s.Apply(Event{Type: EventInteraction, At: t0.Add(2 * time.Second)}))
	require.NoError(t, s.Apply(Event{Type: EventAnswer, At: t0.Add(time.Hour), Answer: &Answer{Type: skill.TypeAddition, Correct: true, ResponseTimeMs: 3000}}))

	r := s.Record()
	require.Len(t, r.Answers, 1)
	assert.Equal(t, clk.Now(), r.Answers[0].At)
}

func TestApply_Errors(t *testing.T) {
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Apply(Event{Type: "teleport"}), ErrUnknownEvent)
	assert.ErrorIs(t, s.Apply(Event{Type: EventAnswer}), ErrMissingPayload)
	assert.ErrorIs(t, s.Apply(Event{Type: EventFeature, Feature: &Feature{}}), ErrMissingPayload)
	assert.ErrorIs(t, s.Apply(Event{Type: EventDisable}), ErrMissingPayload)
	assert.ErrorIs(t, s.Apply(Event{Type: EventCheck, Check: &CheckAnswer{CheckID: "nope"}}), ErrUnknownCheck)

	n, err := s.ApplyAll([]Event{{Type: EventInteraction}, {Type: "bogus"}, {Type: EventInteraction}})
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestApply_DisableModality(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Apply(Event{Type: EventDisable, Modality: fusion.ModalityAudio}))
	require.NoError(t, s.Apply(Event{Type: EventFeature, Feature: &Feature{Audio: &fusion.AudioFeature{Energy: 1, VoiceActivity: 1}}}))
	assert.Nil(t, s.Monitor().Metrics().AudioEngagementScore)
}

func TestEnd_UpdatesLearnerOnce(t *testing.T) {
	s, clk := newTestSession(t)
	for i := 0; i < 5; i++ {
		clk.Advance(10 * time.Second)
		s.RecordAnswer(Answer{Type: skill.TypeSubtraction, Correct: true, ResponseTimeMs: 2500})
	}
	clk.Advance(time.Minute)

	r := s.End()
	require.NotNil(t, r.EndTime)
	assert.True(t, s.Ended())
	assert.InDelta(t, 110, r.DurationSecs, 0.001)
	assert.Equal(t, 5, r.TaskCount)
	assert.InDelta(t, 1.0, r.Accuracy, 0.001)
	require.Len(t, s.Learner().History, 1)
	assert.Equal(t, "s-1", s.Learner().History[0].SessionID)

	clk.Advance(time.Minute)
	again := s.End()
	assert.Len(t, s.Learner().History, 1)
	assert.Equal(t, *r.EndTime, *again.EndTime)
	assert.InDelta(t, 110, again.DurationSecs, 0.001)
}

func TestRecord_QualityAttached(t *testing.T) {
	s, _ := newTestSession(t)
	c, ok := quality.CheckByID("sum")
	require.True(t, ok)
	s.RecordCheck(c, "4", 900)
	s.RecordCheck(c, "5", 900)
	s.RecordCheck(c, "3", 900)

	r := s.Record()
	assert.Equal(t, 1, r.Quality.AttentionChecksPassed)
	assert.True(t, r.Quality.HasFlag(quality.FlagFailedAttentionChecks))
	assert.False(t, r.Quality.IsValidSession)
	assert.Len(t, r.AttentionChecks, 3)
	assert.Nil(t, r.EndTime)
}

func TestBuildSummary(t *testing.T) {
	s, clk := newTestSession(t)
	s.RecordAnswer(Answer{Type: skill.TypeAddition, Correct: true, ResponseTimeMs: 2000})
	s.RecordAnswer(Answer{Type: skill.TypeRecognition, Correct: false, ResponseTimeMs: 2000})
	clk.Advance(90 * time.Second)

	sum := BuildSummary(s.End())
	assert.Equal(t, 90*time.Second, sum.Duration)
	assert.Equal(t, 2, sum.TotalQuestions)
	assert.Equal(t, 1, sum.TotalCorrect)
	require.Len(t, sum.TypeResults, 2)
	assert.Equal(t, skill.TypeRecognition, sum.TypeResults[0].Type)
	assert.Contains(t, sum.Flags, string(quality.FlagFailedAttentionChecks))
}

func TestSnapshotsInRecord(t *testing.T) {
	s, clk := newTestSession(t)
	for i := 0; i < 40; i++ {
		require.NoError(t, s.Apply(Event{Type: EventMouse, X: float64(i * 20)}))
		clk.Advance(3 * time.Second)
	}
	r := s.Record()
	assert.Len(t, r.Snapshots, engagement.DefaultMaxSnapshots)
}

func TestCheckDue(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.CheckDue())

	for range CheckEvery {
		s.RecordAnswer(Answer{Type: skill.TypeAddition, Correct: true, ResponseTimeMs: 2500})
	}
	assert.True(t, s.CheckDue())

	s.RecordCheck(s.NextCheck(), "anything", 1500)
	assert.False(t, s.CheckDue())
}
