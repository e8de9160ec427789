package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/session"
)

func TestBaseXP(t *testing.T) {
	tests := []struct {
		d    float64
		want int
	}{
		{0, 5}, {20, 5}, {21, 8}, {40, 8}, {60, 10}, {80, 13}, {95, 16},
	}
	for _, tt := range tests {
		if got := BaseXP(tt.d); got != tt.want {
			t.Errorf("BaseXP(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestChallengeBonus(t *testing.T) {
	tests := []struct {
		fluency, d float64
		want       int
	}{
		{50, 40, 0}, {50, 50, 0}, {50, 55, 2}, {50, 70, 5}, {50, 90, 8},
	}
	for _, tt := range tests {
		if got := ChallengeBonus(tt.fluency, tt.d); got != tt.want {
			t.Errorf("ChallengeBonus(%v, %v) = %d, want %d", tt.fluency, tt.d, got, tt.want)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 6, LevelForXP(550))
	assert.Equal(t, 1, LevelForXP(-20))
}

func TestApply_ValidSession(t *testing.T) {
	p := New("u1")
	r := SessionResult{
		SessionID:      "s1",
		Valid:          true,
		Fluency:        50,
		AttentionScore: 95,
		Answers: []AnswerResult{
			{Correct: true, Difficulty: 55},
			{Correct: true, Difficulty: 55},
			{Correct: true, Difficulty: 55},
			{Correct: true, Difficulty: 55},
			{Correct: true, Difficulty: 55},
		},
	}
	// per answer: 10 base + 2 challenge; combo 0,0,3,5,8; perfect 25
	// 5*12 + 16 + 25 = 101
	got, award := Apply(p, r)
	assert.Equal(t, 101, award.XP)
	assert.Equal(t, 10, award.Coins)
	assert.True(t, award.LevelUp)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 1, got.SessionsCompleted)
	assert.ElementsMatch(t, []string{
		BadgeFirstSession, BadgePerfectSession, BadgeFocusChampion, BadgeStreak5,
	}, award.Badges)

	// Badges are not awarded twice.
	again, award2 := Apply(got, r)
	assert.Empty(t, award2.Badges)
	assert.Len(t, again.Badges, 4)
	assert.Equal(t, 202, again.XP)
	assert.Len(t, got.Badges, 4, "Apply must not mutate the input progress")
}

func TestApply_InvalidSessionEarnsNothing(t *testing.T) {
	p := New("u1")
	got, award := Apply(p, SessionResult{
		Valid:   false,
		Answers: []AnswerResult{{Correct: true, Difficulty: 90}},
	})
	assert.Equal(t, 0, award.XP)
	assert.Equal(t, 0, got.XP)
	assert.Empty(t, got.Badges)
	assert.Equal(t, 1, got.SessionsCompleted)
	assert.Equal(t, 1, got.Level)
}

func TestApply_ComboResetsOnMiss(t *testing.T) {
	r := SessionResult{
		Valid:   true,
		Fluency: 100,
		Answers: []AnswerResult{
			{Correct: true, Difficulty: 10},
			{Correct: true, Difficulty: 10},
			{Correct: false, Difficulty: 10},
			{Correct: true, Difficulty: 10},
			{Correct: true, Difficulty: 10},
		},
	}
	// 4 * 5 base, no combo reaches 3, accuracy 0.8 -> +10
	_, award := Apply(New("u"), r)
	assert.Equal(t, 30, award.XP)
	assert.NotContains(t, award.Badges, BadgeStreak5)
}

func TestApply_TenSessions(t *testing.T) {
	p := New("u")
	for i := 0; i < 10; i++ {
		p, _ = Apply(p, SessionResult{Valid: true})
	}
	assert.True(t, p.HasBadge(BadgeTenSessions))
	assert.True(t, p.HasBadge(BadgeFirstSession))
}

func TestFromRecord(t *testing.T) {
	end := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := session.Record{
		SessionID: "s1",
		EndTime:   &end,
		Answers: []session.Answer{
			{Correct: true, Difficulty: 70},
			{Correct: false, Difficulty: 75},
		},
		Engagement: engagement.Metrics{AttentionScore: 91},
		Quality:    quality.Metrics{IsValidSession: true},
	}
	r := FromRecord(rec, 60)
	require.Len(t, r.Answers, 2)
	assert.True(t, r.Valid)
	assert.Equal(t, 60.0, r.Fluency)
	assert.Equal(t, 91.0, r.AttentionScore)
	assert.Equal(t, end, r.FinishedAt)
}
