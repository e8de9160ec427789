package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/aranyoray/studybot/internal/skill"
)

type profileRepo struct {
	s *Store
}

func (r *profileRepo) Save(ctx context.Context, p Profile) error {
	diagnosed, err := json.Marshal(p.Diagnosed)
	if err != nil {
		return fmt.Errorf("marshal diagnosed conditions: %w", err)
	}
	thresholds, err := json.Marshal(p.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	ins := r.s.builder().Insert(ProfilesTable.Name).
		Columns("user_id", "condition", "diagnosed", "thresholds", "updated_at").
		Values(p.UserID, string(p.Condition), string(diagnosed), string(thresholds), p.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

func (r *profileRepo) Get(ctx context.Context, userID string) (Profile, error) {
	b := r.s.builder()
	sel := b.Select("condition", "diagnosed", "thresholds", "updated_at").
		From(b.Table(ProfilesTable.Name)).
		Where(entsql.EQ("user_id", userID))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Profile{}, fmt.Errorf("query profile: %w", err)
		}
		return Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}

	p := Profile{UserID: userID}
	var diagnosed, thresholds []byte
	if err := rows.Scan(&p.Condition, &diagnosed, &thresholds, &p.UpdatedAt); err != nil {
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	if err := json.Unmarshal(diagnosed, &p.Diagnosed); err != nil {
		return Profile{}, fmt.Errorf("unmarshal diagnosed conditions: %w", err)
	}
	if err := json.Unmarshal(thresholds, &p.Thresholds); err != nil {
		return Profile{}, fmt.Errorf("unmarshal thresholds: %w", err)
	}
	return p, nil
}

type learnerRepo struct {
	s *Store
}

func (r *learnerRepo) Save(ctx context.Context, m *skill.LearnerModel) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal learner model: %w", err)
	}
	updated := m.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	ins := r.s.builder().Insert(LearnerModelsTable.Name).
		Columns("user_id", "data", "updated_at").
		Values(m.UserID, string(data), updated.UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save learner model %s: %w", m.UserID, err)
	}
	return nil
}

func (r *learnerRepo) Get(ctx context.Context, userID string) (*skill.LearnerModel, error) {
	b := r.s.builder()
	sel := b.Select("data").
		From(b.Table(LearnerModelsTable.Name)).
		Where(entsql.EQ("user_id", userID))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query learner model: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query learner model: %w", err)
		}
		return nil, fmt.Errorf("learner model %s: %w", userID, ErrNotFound)
	}

	var raw []byte
	if err := rows.Scan(&raw); err != nil {
		return nil, fmt.Errorf("scan learner model: %w", err)
	}
	var m skill.LearnerModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal learner model: %w", err)
	}
	return &m, nil
}
