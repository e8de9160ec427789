package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/aranyoray/studybot/internal/engagement"
)

// snapshotRepo implements SnapshotRepo over the engagement_snapshots table.
type snapshotRepo struct {
	s *Store
}

func (r *snapshotRepo) Append(ctx context.Context, sessionID string, snaps ...engagement.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	ins := r.s.builder().Insert(EngagementSnapshotsTable.Name).
		Columns("session_id", "timestamp", "data")
	for _, snap := range snaps {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		ins.Values(sessionID, snap.Timestamp.UTC(), string(data))
	}
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepo) List(ctx context.Context, sessionID string) ([]engagement.Snapshot, error) {
	b := r.s.builder()
	sel := b.Select("data").
		From(b.Table(EngagementSnapshotsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderExpr(entsql.Expr("timestamp ASC, id ASC"))

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []engagement.Snapshot{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap engagement.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *snapshotRepo) Prune(ctx context.Context, sessionID string, keep int) error {
	// Find the id threshold: the keep-th most recent snapshot.
	b := r.s.builder()
	sel := b.Select("id").
		From(b.Table(EngagementSnapshotsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderExpr(entsql.Expr("id DESC")).
		Offset(keep).
		Limit(1)

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	var threshold int
	found := rows.Next()
	if found {
		err = rows.Scan(&threshold)
	}
	rows.Close()
	if err != nil {
		return fmt.Errorf("scan prune threshold: %w", err)
	}
	if !found {
		return nil // fewer than keep snapshots exist
	}

	del := r.s.builder().Delete(EngagementSnapshotsTable.Name).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.LTE("id", threshold),
		))
	if err := r.s.exec(ctx, del); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
