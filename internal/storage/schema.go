package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			nickname TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id INTEGER PRIMARY KEY,
			intelligence INTEGER NOT NULL DEFAULT 0,
			creativity INTEGER NOT NULL DEFAULT 0,
			social INTEGER NOT NULL DEFAULT 0,
			physical INTEGER NOT NULL DEFAULT 0,
			emotional INTEGER NOT NULL DEFAULT 0,
			focus INTEGER NOT NULL DEFAULT 0,
			adaptability INTEGER NOT NULL DEFAULT 0,
			total_points INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			can_level_up INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS missions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			estimated_time TEXT NOT NULL,
			target_stats TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			is_ai_generated INTEGER NOT NULL DEFAULT 0,
			completed_at_level INTEGER,
			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS stat_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			stat_name TEXT NOT NULL,
			event_type TEXT NOT NULL,
			description TEXT NOT NULL,
			delta INTEGER NOT NULL,
			source_id INTEGER,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS user_analysis (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			correlation_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			input_method TEXT NOT NULL,
			input_data TEXT NOT NULL,
			analysis_result TEXT,
			summary TEXT,
			stat_explanations TEXT,
			used_fallback INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS pending_analysis (
			user_id INTEGER PRIMARY KEY,
			input_method TEXT NOT NULL,
			input_data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_missions_user_status ON missions(user_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_stat_events_user_created ON stat_events(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_stat_events_user_stat ON stat_events(user_id, stat_name, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_user_analysis_user ON user_analysis(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
