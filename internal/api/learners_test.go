package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/skill"
	"github.com/aranyoray/studybot/internal/store"
)

func TestProfileAndThresholds(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/profile/u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/thresholds/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fusion.DefaultThresholds(), decodeAs[fusion.Thresholds](t, rec))

	rec = ts.do(t, http.MethodPost, "/api/profile", map[string]any{
		"userId":              "u1",
		"diagnosedConditions": map[string]any{"adhd": true, "dyslexia": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decodeAs[ProfileResponse](t, rec)
	assert.Equal(t, fusion.ConditionADHD, saved.Thresholds.Condition)

	rec = ts.do(t, http.MethodGet, "/api/profile/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeAs[store.Profile](t, rec)
	assert.True(t, p.Diagnosed.Dyslexia)
	assert.Equal(t, fusion.ConditionADHD, p.Condition)

	rec = ts.do(t, http.MethodPatch, "/api/thresholds/u1", map[string]any{
		"breakFrequency":    12,
		"minAttentionScore": "45",
		"breakDuration":     50,
		"colour":            "blue",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	th := decodeAs[fusion.Thresholds](t, rec)
	assert.Equal(t, 12, th.BreakFrequency)
	assert.Equal(t, 45.0, th.MinAttentionScore)
	assert.Equal(t, 10, th.BreakDuration, "clamped to range")
	assert.Equal(t, fusion.ConditionADHD, th.Condition)

	rec = ts.do(t, http.MethodGet, "/api/thresholds/u1", nil)
	assert.Equal(t, 12, decodeAs[fusion.Thresholds](t, rec).BreakFrequency)
}

func TestSaveProfile_ExplicitCondition(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/profile", map[string]any{
		"userId":    "u1",
		"condition": "anxiety",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fusion.ConditionAnxiety, decodeAs[ProfileResponse](t, rec).Thresholds.Condition)

	rec = ts.do(t, http.MethodPost, "/api/profile", map[string]any{"condition": "adhd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchThresholds_CreatesProfile(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPatch, "/api/thresholds/new", map[string]any{"maxSessionLength": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	p, err := ts.store.ProfileRepo().Get(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, 30, p.Thresholds.MaxSessionLength)
	assert.Equal(t, fusion.ConditionTypical, p.Condition)
}

func TestProgress(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/progress/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeAs[progress.Progress](t, rec)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 0, got.XP)
	assert.Empty(t, got.Badges)

	rec = ts.do(t, http.MethodPost, "/api/progress", map[string]any{
		"userId": "u1", "level": 3, "xp": 250, "coins": 25,
		"badges": []string{"first-session"}, "sessionsCompleted": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/progress/u1", nil)
	got = decodeAs[progress.Progress](t, rec)
	assert.Equal(t, 250, got.XP)
	assert.Equal(t, 4, got.SessionsCompleted)
	assert.Equal(t, []string{"first-session"}, got.Badges)
}

func TestProgress_DefaultUser(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/progress", map[string]any{"xp": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	p, err := ts.store.ProgressRepo().Get(context.Background(), defaultUser)
	require.NoError(t, err)
	assert.Equal(t, 10, p.XP)
	assert.Equal(t, 1, p.Level)
}

func TestMathFeelingSurvey(t *testing.T) {
	ts := newTestServer(t)

	for _, score := range []int{0, 11} {
		rec := ts.do(t, http.MethodPost, "/api/survey/math-feeling", map[string]any{"userId": "u1", "score": score})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "score %d", score)
	}

	rec := ts.do(t, http.MethodPost, "/api/survey/math-feeling", map[string]any{"userId": "u1", "score": 7})
	require.Equal(t, http.StatusOK, rec.Code)

	surveys, err := ts.store.SurveyRepo().List(context.Background(), store.QueryOpts{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, 7, surveys[0].Score)
	assert.Equal(t, SurveyKindMathFeeling, surveys[0].Kind)
}

func TestDiagnostic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/diagnostic", map[string]any{
		"userId":            "u1",
		"workingMemory":     70,
		"attention":         60,
		"processingSpeed":   80,
		"executiveFunction": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[DiagnosticResponse](t, rec)

	want := skill.InitializeFromDiagnostic(skill.Diagnostic{
		WorkingMemory: 70, Attention: 60, ProcessingSpeed: 80, ExecutiveFunction: 50,
	})
	assert.Equal(t, want, resp.SkillEstimate)
	assert.Equal(t, skill.OptimalDifficulty(want), resp.RecommendedDifficulty)
	assert.Equal(t, skill.NextQuestion(want, nil), resp.FirstQuestion)

	m, err := ts.store.LearnerRepo().Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, want, m.Cognitive)
}

func TestSessions(t *testing.T) {
	ts := newTestServer(t)
	end := t0.Add(10 * time.Minute)
	rec := session.Record{
		SessionID: "s1",
		UserID:    "u1",
		StartTime: t0,
		EndTime:   &end,
		TaskCount: 2,
		Answers: []session.Answer{
			{Type: skill.TypeAddition, Correct: true, ResponseTimeMs: 1000, At: t0},
			{Type: skill.TypeAddition, Correct: false, ResponseTimeMs: 3000, At: t0},
		},
		AttentionChecks: []quality.CheckResult{{Passed: true}, {Passed: false}},
		Quality:         quality.Metrics{QualityFlags: []quality.Flag{quality.FlagFailedAttentionChecks}},
	}

	r := ts.do(t, http.MethodPost, "/api/sessions", rec)
	require.Equal(t, http.StatusOK, r.Code, r.Body.String())

	r = ts.do(t, http.MethodGet, "/api/sessions/s1", nil)
	require.Equal(t, http.StatusOK, r.Code)
	got := decodeAs[session.Record](t, r)
	assert.Equal(t, "u1", got.UserID)
	assert.Len(t, got.Answers, 2)

	r = ts.do(t, http.MethodGet, "/api/analytics/session/s1", nil)
	require.Equal(t, http.StatusOK, r.Code)
	a := decodeAs[SessionAnalytics](t, r)
	assert.Equal(t, 50.0, a.Accuracy)
	assert.Equal(t, 2, a.TotalQuestions)
	assert.Equal(t, 2000.0, a.AverageTimeMs)
	assert.Equal(t, 50.0, a.AttentionScore)
	assert.Equal(t, []quality.Flag{quality.FlagFailedAttentionChecks}, a.QualityFlags)

	for _, path := range []string{"/api/sessions/nope", "/api/analytics/session/nope"} {
		r = ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, r.Code, path)
	}

	r = ts.do(t, http.MethodPost, "/api/sessions", map[string]any{"userId": "u1"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
}

func TestAnalytics_Empty(t *testing.T) {
	a := Analytics(session.Record{SessionID: "s"}, 0)
	assert.Equal(t, 0.0, a.Accuracy)
	assert.Equal(t, 0.0, a.AttentionScore)
	assert.NotNil(t, a.QualityFlags)
}
