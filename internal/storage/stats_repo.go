package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrStaleStats means the stats row changed since it was read.
var ErrStaleStats = errors.New("user stats were modified concurrently")

type StatsRepo struct {
	db DBTX
}

func NewStatsRepo(db DBTX) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Get(ctx context.Context, userID int64) (*UserStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, intelligence, creativity, social, physical, emotional, focus, adaptability,
			total_points, level, can_level_up, version, updated_at
		FROM user_stats
		WHERE user_id = ?
	`, userID)

	var (
		s          UserStats
		canLevelUp int
	)
	if err := row.Scan(
		&s.UserID, &s.Intelligence, &s.Creativity, &s.Social, &s.Physical, &s.Emotional, &s.Focus, &s.Adaptability,
		&s.TotalPoints, &s.Level, &canLevelUp, &s.Version, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("stats get: %w", err)
	}
	s.CanLevelUp = canLevelUp != 0
	return &s, nil
}

// Insert creates the stats row at version 1.
func (r *StatsRepo) Insert(ctx context.Context, s UserStats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_stats (
			user_id, intelligence, creativity, social, physical, emotional, focus, adaptability,
			total_points, level, can_level_up, version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, s.UserID, s.Intelligence, s.Creativity, s.Social, s.Physical, s.Emotional, s.Focus, s.Adaptability,
		s.TotalPoints, s.Level, boolToInt(s.CanLevelUp), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("stats insert: %w", err)
	}
	return nil
}

// Update writes s only if the stored version still equals s.Version, then bumps it.
// A mismatch returns ErrStaleStats.
func (r *StatsRepo) Update(ctx context.Context, s UserStats) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_stats
		SET intelligence = ?, creativity = ?, social = ?, physical = ?, emotional = ?, focus = ?, adaptability = ?,
			total_points = ?, level = ?, can_level_up = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?
	`, s.Intelligence, s.Creativity, s.Social, s.Physical, s.Emotional, s.Focus, s.Adaptability,
		s.TotalPoints, s.Level, boolToInt(s.CanLevelUp), s.UpdatedAt, s.UserID, s.Version)
	if err != nil {
		return 0, fmt.Errorf("stats update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stats update rows: %w", err)
	}
	if n == 0 {
		return 0, ErrStaleStats
	}
	return s.Version + 1, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
