package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/skill"
)

// Finished is a closed session ready to be persisted.
type Finished struct {
	Record   session.Record
	Learner  *skill.LearnerModel
	Analysis fusion.Analysis

	// Fluency is the learner's math fluency when the session started. It
	// decides challenge bonuses.
	Fluency float64
	At      time.Time
}

// SaveFinished stores the record, its snapshots, the learner model and the
// closing analysis, then awards progress for the session. All writes share
// one transaction, so a failed save leaves nothing behind and can be
// retried.
func (s *Store) SaveFinished(ctx context.Context, f Finished) (progress.Progress, progress.Award, error) {
	var (
		p     progress.Progress
		award progress.Award
	)
	err := s.inTx(ctx, func(tx *Store) error {
		var err error
		p, award, err = tx.saveFinished(ctx, f)
		return err
	})
	if err != nil {
		return progress.Progress{}, progress.Award{}, err
	}
	return p, award, nil
}

func (s *Store) saveFinished(ctx context.Context, f Finished) (progress.Progress, progress.Award, error) {
	rec := f.Record
	if err := s.SessionRepo().Save(ctx, rec); err != nil {
		return progress.Progress{}, progress.Award{}, fmt.Errorf("save session: %w", err)
	}
	if len(rec.Snapshots) > 0 {
		if err := s.SnapshotRepo().Append(ctx, rec.SessionID, rec.Snapshots...); err != nil {
			return progress.Progress{}, progress.Award{}, fmt.Errorf("save snapshots: %w", err)
		}
	}
	if f.Learner != nil {
		if err := s.LearnerRepo().Save(ctx, f.Learner); err != nil {
			return progress.Progress{}, progress.Award{}, fmt.Errorf("save learner: %w", err)
		}
	}
	if _, err := s.AnalysisRepo().Append(ctx, Analysis{
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		Result:    f.Analysis,
		CreatedAt: f.At,
	}); err != nil {
		return progress.Progress{}, progress.Award{}, fmt.Errorf("save analysis: %w", err)
	}

	p, err := s.ProgressRepo().Get(ctx, rec.UserID)
	if errors.Is(err, ErrNotFound) {
		p, err = progress.New(rec.UserID), nil
	}
	if err != nil {
		return progress.Progress{}, progress.Award{}, fmt.Errorf("load progress: %w", err)
	}
	p, award := progress.Apply(p, progress.FromRecord(rec, f.Fluency))
	if err := s.ProgressRepo().Save(ctx, p); err != nil {
		return progress.Progress{}, progress.Award{}, fmt.Errorf("save progress: %w", err)
	}
	return p, award, nil
}
