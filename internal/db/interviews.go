package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/interview-coach/internal/types"
)

const interviewColumns = `id, user_id, role, level, type, techstack, questions, finalized, cover_image, created_at`

// CreateInterview inserts an interview.
func (db *DB) CreateInterview(ctx context.Context, iv *types.Interview) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO interviews (`+interviewColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		iv.ID, iv.UserID, iv.Role, iv.Level, iv.Type,
		emptyIfNil(iv.Techstack), emptyIfNil(iv.Questions),
		iv.Finalized, iv.CoverImage, iv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// GetInterview returns the interview with id, or nil if there is none.
func (db *DB) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	list, err := collectInterviews(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// GetInterviewsByUser returns the interviews owned by userID, newest first.
func (db *DB) GetInterviewsByUser(ctx context.Context, userID uuid.UUID) ([]types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return collectInterviews(rows)
}

// GetLatestInterviews returns up to limit finalized interviews not owned by
// excludeUserID, newest first.
func (db *DB) GetLatestInterviews(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE finalized AND user_id <> $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		excludeUserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest interviews: %w", err)
	}
	return collectInterviews(rows)
}

func collectInterviews(rows pgx.Rows) ([]types.Interview, error) {
	defer rows.Close()

	interviews := []types.Interview{}
	for rows.Next() {
		var iv types.Interview
		if err := rows.Scan(&iv.ID, &iv.UserID, &iv.Role, &iv.Level, &iv.Type,
			&iv.Techstack, &iv.Questions, &iv.Finalized, &iv.CoverImage, &iv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interviews: %w", err)
	}
	return interviews, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
