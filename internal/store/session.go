package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/aranyoray/studybot/internal/session"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Save(ctx context.Context, rec session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	var end sql.NullTime
	if rec.EndTime != nil {
		end = sql.NullTime{Time: rec.EndTime.UTC(), Valid: true}
	}

	ins := r.s.builder().Insert(SessionsTable.Name).
		Columns("id", "user_id", "start_time", "end_time", "duration_secs", "accuracy",
			"task_count", "attention_score", "engagement_score", "math_fluency", "is_valid", "record").
		Values(rec.SessionID, rec.UserID, rec.StartTime.UTC(), end, rec.DurationSecs, rec.Accuracy,
			rec.TaskCount, rec.Engagement.AttentionScore, rec.Engagement.EngagementScore,
			rec.Estimate.MathFluency, rec.Quality.IsValidSession, string(data)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (session.Record, error) {
	b := r.s.builder()
	sel := b.Select("record").From(b.Table(SessionsTable.Name)).Where(entsql.EQ("id", id))

	recs, err := r.scan(ctx, sel)
	if err != nil {
		return session.Record{}, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(recs) == 0 {
		return session.Record{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return recs[0], nil
}

func (r *sessionRepo) List(ctx context.Context, opts QueryOpts) ([]session.Record, error) {
	b := r.s.builder()
	sel := b.Select("record").From(b.Table(SessionsTable.Name))
	if p := timeRange("start_time", opts); p != nil {
		sel.Where(p)
	}
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	sel.OrderExpr(entsql.Expr("start_time DESC"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	recs, err := r.scan(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return recs, nil
}

func (r *sessionRepo) scan(ctx context.Context, sel *entsql.Selector) ([]session.Record, error) {
	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec session.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal session record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// timeRange builds the From/To predicate on column, or nil.
func timeRange(column string, opts QueryOpts) *entsql.Predicate {
	var ps []*entsql.Predicate
	if !opts.From.IsZero() {
		ps = append(ps, entsql.GTE(column, opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		ps = append(ps, entsql.LTE(column, opts.To.UTC()))
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	default:
		return entsql.And(ps...)
	}
}
