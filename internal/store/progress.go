package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/aranyoray/studybot/internal/progress"
)

type progressRepo struct {
	s *Store
}

func (r *progressRepo) Save(ctx context.Context, p progress.Progress) error {
	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	data, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	ins := r.s.builder().Insert(ProgressTable.Name).
		Columns("user_id", "level", "xp", "coins", "badges", "sessions_completed", "updated_at").
		Values(p.UserID, p.Level, p.XP, p.Coins, string(data), p.SessionsCompleted, updated.UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save progress %s: %w", p.UserID, err)
	}
	return nil
}

func (r *progressRepo) Get(ctx context.Context, userID string) (progress.Progress, error) {
	b := r.s.builder()
	sel := b.Select("level", "xp", "coins", "badges", "sessions_completed", "updated_at").
		From(b.Table(ProgressTable.Name)).
		Where(entsql.EQ("user_id", userID))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return progress.Progress{}, fmt.Errorf("query progress: %w", err)
		}
		return progress.Progress{}, fmt.Errorf("progress %s: %w", userID, ErrNotFound)
	}

	p := progress.Progress{UserID: userID}
	var badges []byte
	if err := rows.Scan(&p.Level, &p.XP, &p.Coins, &badges, &p.SessionsCompleted, &p.UpdatedAt); err != nil {
		return progress.Progress{}, fmt.Errorf("scan progress: %w", err)
	}
	if err := json.Unmarshal(badges, &p.Badges); err != nil {
		return progress.Progress{}, fmt.Errorf("unmarshal badges: %w", err)
	}
	return p, nil
}
