package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PendingRepo struct {
	db DBTX
}

func NewPendingRepo(db DBTX) *PendingRepo {
	return &PendingRepo{db: db}
}

// Upsert replaces any pending analysis for the user.
func (r *PendingRepo) Upsert(ctx context.Context, p PendingAnalysis) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_analysis (user_id, input_method, input_data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			input_method = excluded.input_method,
			input_data = excluded.input_data,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, p.UserID, p.InputMethod, p.InputData, p.CreatedAt, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("pending analysis upsert: %w", err)
	}
	return nil
}

func (r *PendingRepo) Get(ctx context.Context, userID int64) (*PendingAnalysis, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, input_method, input_data, created_at, expires_at
		FROM pending_analysis
		WHERE user_id = ?
	`, userID)
	var p PendingAnalysis
	if err := row.Scan(&p.UserID, &p.InputMethod, &p.InputData, &p.CreatedAt, &p.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending analysis get: %w", err)
	}
	return &p, nil
}

func (r *PendingRepo) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_analysis WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("pending analysis delete: %w", err)
	}
	return nil
}
