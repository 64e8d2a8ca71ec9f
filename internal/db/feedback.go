package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// CreateFeedback inserts a feedback record. Earlier feedback for the same
// interview and user is kept.
func (db *DB) CreateFeedback(ctx context.Context, f *types.Feedback) error {
	scores, err := json.Marshal(f.CategoryScores)
	if err != nil {
		return fmt.Errorf("failed to marshal category scores: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO feedback (id, interview_id, user_id, total_score, category_scores,
		                       strengths, areas_for_improvement, final_assessment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.InterviewID, f.UserID, f.TotalScore, scores,
		emptyIfNil(f.Strengths), emptyIfNil(f.AreasForImprovement), f.FinalAssessment, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// GetFeedbackByInterview returns the newest feedback of userID for
// interviewID, or nil if there is none.
func (db *DB) GetFeedbackByInterview(ctx context.Context, interviewID, userID uuid.UUID) (*types.Feedback, error) {
	var f types.Feedback
	var scores []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, interview_id, user_id, total_score, category_scores,
		        strengths, areas_for_improvement, final_assessment, created_at
		 FROM feedback
		 WHERE interview_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		interviewID, userID,
	).Scan(&f.ID, &f.InterviewID, &f.UserID, &f.TotalScore, &scores,
		&f.Strengths, &f.AreasForImprovement, &f.FinalAssessment, &f.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	if err := json.Unmarshal(scores, &f.CategoryScores); err != nil {
		return nil, fmt.Errorf("failed to decode category scores: %w", err)
	}
	return &f, nil
}
