package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type surveyRepo struct {
	s *Store
}

func (r *surveyRepo) Append(ctx context.Context, sv Survey) (int, error) {
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = time.Now()
	}
	ins := r.s.builder().Insert(SurveysTable.Name).
		Columns("user_id", "session_id", "kind", "score", "created_at").
		Values(sv.UserID, sv.SessionID, sv.Kind, sv.Score, sv.CreatedAt.UTC())
	id, err := r.s.insertID(ctx, ins)
	if err != nil {
		return 0, fmt.Errorf("save survey: %w", err)
	}
	return id, nil
}

func (r *surveyRepo) List(ctx context.Context, opts QueryOpts) ([]Survey, error) {
	b := r.s.builder()
	sel := b.Select("id", "user_id", "session_id", "kind", "score", "created_at").
		From(b.Table(SurveysTable.Name))
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	if p := timeRange("created_at", opts); p != nil {
		sel.Where(p)
	}
	sel.OrderExpr(entsql.Expr("id DESC"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query surveys: %w", err)
	}
	defer rows.Close()

	out := []Survey{}
	for rows.Next() {
		var sv Survey
		if err := rows.Scan(&sv.ID, &sv.UserID, &sv.SessionID, &sv.Kind, &sv.Score, &sv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

type analysisRepo struct {
	s *Store
}

func (r *analysisRepo) Append(ctx context.Context, a Analysis) (int, error) {
	data, err := json.Marshal(a.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal analysis: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	ins := r.s.builder().Insert(AnalysesTable.Name).
		Columns("user_id", "session_id", "data", "created_at").
		Values(a.UserID, a.SessionID, string(data), a.CreatedAt.UTC())
	id, err := r.s.insertID(ctx, ins)
	if err != nil {
		return 0, fmt.Errorf("save analysis: %w", err)
	}
	return id, nil
}

func (r *analysisRepo) ListBySession(ctx context.Context, sessionID string) ([]Analysis, error) {
	b := r.s.builder()
	sel := b.Select("id", "user_id", "data", "created_at").
		From(b.Table(AnalysesTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderExpr(entsql.Expr("id ASC"))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a := Analysis{SessionID: sessionID}
		var raw []byte
		if err := rows.Scan(&a.ID, &a.UserID, &raw, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal(raw, &a.Result); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
