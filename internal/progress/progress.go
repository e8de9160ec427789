// Package progress awards experience, coins and badges for finished
// practice sessions.
package progress

import (
	"fmt"
	"slices"
	"time"

	"github.com/aranyoray/studybot/internal/session"
)

const (
	// XPPerLevel is the experience needed per level.
	XPPerLevel = 100

	// XPPerCoin converts earned XP into coins.
	XPPerCoin = 10
)

// Progress is a learner's cumulative gamified progress.
type Progress struct {
	UserID            string    `json:"userId,omitempty"`
	Level             int       `json:"level"`
	XP                int       `json:"xp"`
	Coins             int       `json:"coins"`
	Badges            []string  `json:"badges"`
	SessionsCompleted int       `json:"sessionsCompleted"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty"`
}

// New returns the starting progress for a learner.
func New(userID string) Progress {
	return Progress{UserID: userID, Level: 1, Badges: []string{}}
}

// HasBadge reports whether the badge was earned.
func (p Progress) HasBadge(id string) bool {
	return slices.Contains(p.Badges, id)
}

// AnswerResult is one answered question as seen by the reward rules.
type AnswerResult struct {
	Correct    bool    `json:"correct"`
	Difficulty float64 `json:"difficulty"`
}

// SessionResult is what a finished session contributes to progress.
type SessionResult struct {
	SessionID      string
	Valid          bool
	Fluency        float64 // skill estimate at session start
	AttentionScore float64
	Answers        []AnswerResult
	FinishedAt     time.Time
}

// Award describes what one session earned.
type Award struct {
	SessionID string   `json:"sessionId"`
	XP        int      `json:"xpEarned"`
	Coins     int      `json:"coinsEarned"`
	Badges    []string `json:"newBadges"`
	LevelUp   bool     `json:"levelUp"`
	Reason    string   `json:"reason"`
}

// Apply folds a session result into p and returns the updated progress and
// the award. Invalid sessions are counted but earn nothing.
func Apply(p Progress, r SessionResult) (Progress, Award) {
	if p.Level == 0 {
		p.Level = 1
	}
	p.Badges = slices.Clone(p.Badges)
	if p.Badges == nil {
		p.Badges = []string{}
	}
	p.SessionsCompleted++
	if !r.FinishedAt.IsZero() {
		p.UpdatedAt = r.FinishedAt
	}

	award := Award{SessionID: r.SessionID, Badges: []string{}}
	if !r.Valid {
		award.Reason = "Session did not pass quality checks"
		return p, award
	}

	xp, correct, bestCombo := 0, 0, 0
	combo := 0
	for _, a := range r.Answers {
		if !a.Correct {
			combo = 0
			continue
		}
		correct++
		combo++
		bestCombo = max(bestCombo, combo)
		xp += BaseXP(a.Difficulty) + ChallengeBonus(r.Fluency, a.Difficulty) + ComboXP(combo)
	}
	xp += CompletionXP(correct, len(r.Answers))

	before := p.Level
	p.XP += xp
	p.Coins += xp / XPPerCoin
	p.Level = LevelForXP(p.XP)

	award.XP = xp
	award.Coins = xp / XPPerCoin
	award.LevelUp = p.Level > before
	award.Reason = fmt.Sprintf("Session complete (%d/%d correct)", correct, len(r.Answers))

	for _, b := range earnedBadges(p, r, correct, bestCombo) {
		if !p.HasBadge(b) {
			p.Badges = append(p.Badges, b)
			award.Badges = append(award.Badges, b)
		}
	}
	return p, award
}

// FromRecord builds a SessionResult from a finished session record.
// fluency is the learner's math fluency when the session began.
func FromRecord(rec session.Record, fluency float64) SessionResult {
	answers := make([]AnswerResult, len(rec.Answers))
	for i, a := range rec.Answers {
		answers[i] = AnswerResult{Correct: a.Correct, Difficulty: a.Difficulty}
	}
	r := SessionResult{
		SessionID:      rec.SessionID,
		Valid:          rec.Quality.IsValidSession,
		Fluency:        fluency,
		AttentionScore: rec.Engagement.AttentionScore,
		Answers:        answers,
	}
	if rec.EndTime != nil {
		r.FinishedAt = *rec.EndTime
	}
	return r
}
