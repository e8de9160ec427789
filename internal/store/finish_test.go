package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/skill"
)

func TestSaveFinished(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Minute)

	rec := session.Record{
		SessionID: "s-1",
		UserID:    "u-1",
		StartTime: start,
		EndTime:   &end,
		TaskCount: 2,
		Accuracy:  1,
		Answers: []session.Answer{
			{Type: skill.TypeAddition, Correct: true, Difficulty: 40, ResponseTimeMs: 2000, At: start},
			{Type: skill.TypeAddition, Correct: true, Difficulty: 45, ResponseTimeMs: 2400, At: start},
		},
		Snapshots: []engagement.Snapshot{{Timestamp: start, IsFocused: true}},
		Quality:   quality.Metrics{IsValidSession: true, QualityFlags: []quality.Flag{}},
	}
	learner := skill.NewLearnerModel("u-1", start)

	p, award, err := s.SaveFinished(ctx, Finished{
		Record:   rec,
		Learner:  learner,
		Analysis: fusion.Analysis{Level: engagement.LevelHigh},
		Fluency:  50,
		At:       end,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.SessionsCompleted)
	assert.Greater(t, award.XP, 0)
	assert.Equal(t, p.XP, award.XP)

	got, err := s.SessionRepo().Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, got.Answers, 2)

	snaps, err := s.SnapshotRepo().List(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	_, err = s.LearnerRepo().Get(ctx, "u-1")
	require.NoError(t, err)

	analyses, err := s.AnalysisRepo().ListBySession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, engagement.LevelHigh, analyses[0].Result.Level)

	stored, err := s.ProgressRepo().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, p.XP, stored.XP)
}

func TestSaveFinished_InvalidSessionEarnsNothing(t *testing.T) {
	s := openTestStore(t)
	rec := session.Record{
		SessionID: "s-2",
		UserID:    "u-2",
		StartTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Answers:   []session.Answer{{Type: skill.TypeAddition, Correct: true, Difficulty: 40}},
		Quality:   quality.Metrics{IsValidSession: false},
	}
	p, award, err := s.SaveFinished(context.Background(), Finished{Record: rec})
	require.NoError(t, err)
	assert.Equal(t, 0, award.XP)
	assert.Equal(t, 1, p.SessionsCompleted)
}

func TestSaveFinished_RollsBackOnFailure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := session.Record{
		SessionID: "s-3",
		UserID:    "u-3",
		StartTime: start,
		Answers:   []session.Answer{{Type: skill.TypeAddition, Correct: true, Difficulty: 40, At: start}},
		Snapshots: []engagement.Snapshot{{Timestamp: start, IsFocused: true}},
		Quality:   quality.Metrics{IsValidSession: true, QualityFlags: []quality.Flag{}},
	}
	f := Finished{Record: rec, Learner: skill.NewLearnerModel("u-3", start), At: start}

	_, err := s.DB().ExecContext(ctx, "DROP TABLE "+ProgressTable.Name)
	require.NoError(t, err)

	_, _, err = s.SaveFinished(ctx, f)
	require.Error(t, err)

	_, err = s.SessionRepo().Get(ctx, "s-3")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LearnerRepo().Get(ctx, "u-3")
	assert.ErrorIs(t, err, ErrNotFound)
	snaps, err := s.SnapshotRepo().List(ctx, "s-3")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	require.NoError(t, s.migrate(ctx))
	p, _, err := s.SaveFinished(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, p.SessionsCompleted)

	snaps, err = s.SnapshotRepo().List(ctx, "s-3")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
