package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type EventRepo struct {
	db DBTX
}

func NewEventRepo(db DBTX) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Insert(ctx context.Context, e StatEvent) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stat_events (user_id, stat_name, event_type, description, delta, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.StatName, e.EventType, e.Description, e.Delta, e.SourceID, e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("stat event insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stat event last insert id: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest events first, optionally filtered by stat name.
func (r *EventRepo) ListRecent(ctx context.Context, userID int64, statName string, limit int) ([]StatEvent, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if statName != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, stat_name, event_type, description, delta, source_id, created_at
			FROM stat_events
			WHERE user_id = ? AND stat_name = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, userID, statName, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, stat_name, event_type, description, delta, source_id, created_at
			FROM stat_events
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, userID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("stat event list: %w", err)
	}
	defer rows.Close()

	var out []StatEvent
	for rows.Next() {
		var (
			e      StatEvent
			source sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.StatName, &e.EventType, &e.Description, &e.Delta, &source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("stat event scan: %w", err)
		}
		if source.Valid {
			v := source.Int64
			e.SourceID = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stat event rows: %w", err)
	}
	return out, nil
}
