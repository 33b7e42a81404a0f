package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Get(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, nickname, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, nickname, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepo) Insert(ctx context.Context, username, nickname string, createdAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, nickname, created_at) VALUES (?, ?, ?)`, username, nickname, createdAt)
	if err != nil {
		return 0, fmt.Errorf("user insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	return id, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Nickname, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	return &u, nil
}
