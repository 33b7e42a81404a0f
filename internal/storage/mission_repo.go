package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissionNotOpen means a conditional transition found no open mission to act on.
var ErrMissionNotOpen = errors.New("mission is not open")

const (
	MissionStatusOpen      = "open"
	MissionStatusCompleted = "completed"
)

type MissionRepo struct {
	db DBTX
}

func NewMissionRepo(db DBTX) *MissionRepo {
	return &MissionRepo{db: db}
}

type MissionInsert struct {
	UserID        int64
	Title         string
	Description   string
	Difficulty    string
	EstimatedTime string
	TargetStats   []string
	IsAIGenerated bool
	CreatedAt     time.Time
}

const missionColumns = `id, user_id, title, description, difficulty, estimated_time, target_stats, status,
	is_ai_generated, completed_at_level, created_at, completed_at`

func (r *MissionRepo) Insert(ctx context.Context, in MissionInsert) (int64, error) {
	targets, err := json.Marshal(in.TargetStats)
	if err != nil {
		return 0, fmt.Errorf("marshal target stats: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO missions (
			user_id, title, description, difficulty, estimated_time, target_stats,
			status, is_ai_generated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.UserID, in.Title, in.Description, in.Difficulty, in.EstimatedTime, string(targets),
		MissionStatusOpen, boolToInt(in.IsAIGenerated), in.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("mission insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mission last insert id: %w", err)
	}
	return id, nil
}

func (r *MissionRepo) Get(ctx context.Context, id int64) (*Mission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = ?`, id)
	return scanMissionRow(row)
}

func (r *MissionRepo) ListByUser(ctx context.Context, userID int64) ([]Mission, error) {
	return r.list(ctx, `SELECT `+missionColumns+` FROM missions WHERE user_id = ? ORDER BY id ASC`, userID)
}

// ListCompleted returns completed missions, most recent first.
func (r *MissionRepo) ListCompleted(ctx context.Context, userID int64) ([]Mission, error) {
	return r.list(ctx, `
		SELECT `+missionColumns+`
		FROM missions
		WHERE user_id = ? AND status = ?
		ORDER BY completed_at DESC, id DESC
	`, userID, MissionStatusCompleted)
}

func (r *MissionRepo) CountOpen(ctx context.Context, userID int64) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions WHERE user_id = ? AND status = ?`, userID, MissionStatusOpen)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("mission count open: %w", err)
	}
	return n, nil
}

// MarkCompleted moves an open mission to completed and stamps the level held at completion.
func (r *MissionRepo) MarkCompleted(ctx context.Context, id, userID int64, completedAt time.Time, level int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE missions
		SET status = ?, completed_at = ?, completed_at_level = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`, MissionStatusCompleted, completedAt, level, id, userID, MissionStatusOpen)
	if err != nil {
		return fmt.Errorf("mission mark completed: %w", err)
	}
	return requireOneRow(res, "mission mark completed")
}

// DeleteOpen removes a mission only while it is open.
func (r *MissionRepo) DeleteOpen(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM missions WHERE id = ? AND user_id = ? AND status = ?`, id, userID, MissionStatusOpen)
	if err != nil {
		return fmt.Errorf("mission delete: %w", err)
	}
	return requireOneRow(res, "mission delete")
}

func (r *MissionRepo) list(ctx context.Context, query string, args ...any) ([]Mission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mission list: %w", err)
	}
	defer rows.Close()

	var out []Mission
	for rows.Next() {
		m, err := scanMissionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mission list rows: %w", err)
	}
	return out, nil
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if n == 0 {
		return ErrMissionNotOpen
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMissionRow(row scanner) (*Mission, error) {
	var (
		m                Mission
		targetsRaw       string
		isAI             int
		completedAtLevel sql.NullInt64
		completedAt      sql.NullTime
	)
	if err := row.Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &m.Difficulty, &m.EstimatedTime, &targetsRaw, &m.Status,
		&isAI, &completedAtLevel, &m.CreatedAt, &completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mission scan: %w", err)
	}
	if err := json.Unmarshal([]byte(targetsRaw), &m.TargetStats); err != nil {
		return nil, fmt.Errorf("unmarshal target stats: %w", err)
	}
	m.IsAIGenerated = isAI != 0
	if completedAtLevel.Valid {
		v := int(completedAtLevel.Int64)
		m.CompletedAtLevel = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		m.CompletedAt = &v
	}
	return &m, nil
}
