package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"supplyChainTracking/models"
)

// SnapshotRepository stores last-known projections in SQLite so the
// dashboard keeps serving stale-but-consistent data across restarts and
// upstream outages. Rows are full JSON payloads keyed by actor; the store
// is replaced wholesale on every successful fetch, never merged.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSegments replaces the actor's snapshot with the given projection,
// preserving input order via the position column.
func (r *SnapshotRepository) SaveSegments(ctx context.Context, actor string, views []models.SegmentView) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM segment_snapshots WHERE actor = ?`, actor); err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, v := range views {
		payload, err := json.Marshal(v)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segment_snapshots (actor, display_id, position, payload) VALUES (?,?,?,?)`,
			actor, v.DisplayID, i, string(payload)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadSegments returns the actor's snapshot in saved order. The boolean is
// false when no snapshot exists.
func (r *SnapshotRepository) LoadSegments(ctx context.Context, actor string) ([]models.SegmentView, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM segment_snapshots WHERE actor = ? ORDER BY position`, actor)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var views []models.SegmentView
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		var v models.SegmentView
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, false, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return views, len(views) > 0, nil
}

// AppendNotification adds a pushed notification to the local log. Re-pushes
// of the same id overwrite rather than duplicate.
func (r *SnapshotRepository) AppendNotification(ctx context.Context, actor string, n models.Notification) error {
	if n.ID == "" {
		return errors.New("notification id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notification_log (actor, id, type, severity, payload) VALUES (?,?,?,?,?)`,
		actor, n.ID, n.Type, string(n.Severity), string(payload))
	return err
}

// ListNotifications returns the newest logged notifications for the actor.
func (r *SnapshotRepository) ListNotifications(ctx context.Context, actor string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM notification_log WHERE actor = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
