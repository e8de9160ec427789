package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo over the llm_events table.
type eventRepo struct {
	s *Store
}

var llmEventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	ins := r.s.builder().Insert(LlmEventsTable.Name).
		Columns(llmEventColumns[1:]...).
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose, data.InputTokens,
			data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage,
			data.RequestBody, data.ResponseBody)
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	b := r.s.builder()
	sel := b.Select(llmEventColumns...).From(b.Table(LlmEventsTable.Name))
	if p := timeRange("timestamp", opts); p != nil {
		sel.Where(p)
	}
	sel.OrderExpr(entsql.Expr("id DESC"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	events, err := r.scan(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (LLMEvent, error) {
	b := r.s.builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table(LlmEventsTable.Name)).
		Where(entsql.EQ("id", id))
	events, err := r.scan(ctx, sel)
	if err != nil {
		return LLMEvent{}, fmt.Errorf("get LLM event: %w", err)
	}
	if len(events) == 0 {
		return LLMEvent{}, fmt.Errorf("LLM event %d: %w", id, ErrNotFound)
	}
	return events[0], nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

// usage aggregates successful and failed calls grouped by column.
func (r *eventRepo) usage(ctx context.Context, column string) ([]LLMUsage, error) {
	b := r.s.builder()
	sel := b.Select(
		column,
		"COUNT(*)",
		"COALESCE(SUM(input_tokens), 0)",
		"COALESCE(SUM(output_tokens), 0)",
		"COALESCE(AVG(latency_ms), 0)",
	).
		From(b.Table(LlmEventsTable.Name)).
		GroupBy(column).
		OrderExpr(entsql.Expr(column + " ASC"))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		var avg float64
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) scan(ctx context.Context, sel *entsql.Selector) ([]LLMEvent, error) {
	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		var e LLMEvent
		var errMsg, reqBody, respBody sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
			&errMsg, &reqBody, &respBody); err != nil {
			return nil, err
		}
		e.ErrorMessage = errMsg.String
		e.RequestBody = reqBody.String
		e.ResponseBody = respBody.String
		out = append(out, e)
	}
	return out, rows.Err()
}
