package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type AnalysisRepo struct {
	db DBTX
}

func NewAnalysisRepo(db DBTX) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) Insert(ctx context.Context, a Analysis) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_analysis (
			correlation_id, user_id, input_method, input_data, analysis_result,
			summary, stat_explanations, used_fallback, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.CorrelationID, a.UserID, a.InputMethod, a.InputData, a.Result, a.Summary, a.StatExplanations,
		boolToInt(a.UsedFallback), a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("analysis insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("analysis last insert id: %w", err)
	}
	return id, nil
}

func (r *AnalysisRepo) ListByUser(ctx context.Context, userID int64) ([]Analysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, correlation_id, user_id, input_method, input_data, analysis_result,
			summary, stat_explanations, used_fallback, created_at
		FROM user_analysis
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("analysis list: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var (
			a            Analysis
			result       sql.NullString
			summary      sql.NullString
			explanations sql.NullString
			fallback     int
		)
		if err := rows.Scan(&a.ID, &a.CorrelationID, &a.UserID, &a.InputMethod, &a.InputData, &result,
			&summary, &explanations, &fallback, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("analysis scan: %w", err)
		}
		a.Result = result.String
		a.Summary = summary.String
		a.StatExplanations = explanations.String
		a.UsedFallback = fallback != 0
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analysis rows: %w", err)
	}
	return out, nil
}
