package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rubric category names. The order is part of the feedback contract.
const (
	CategoryCommunication  = "Communication Skills"
	CategoryTechnical      = "Technical Knowledge"
	CategoryProblemSolving = "Problem Solving"
	CategoryCulturalFit    = "Cultural Fit"
	CategoryConfidence     = "Confidence and Clarity"
)

// Score bounds shared by the total and every category.
const (
	MinScore = 0
	MaxScore = 100

	RubricCategoryCount = 5
)

// RubricCategories returns the fixed rubric categories in order.
func RubricCategories() []string {
	return []string{
		CategoryCommunication,
		CategoryTechnical,
		CategoryProblemSolving,
		CategoryCulturalFit,
		CategoryConfidence,
	}
}

// CategoryScore is the score and comment for one rubric category.
type CategoryScore struct {
	Name    string `json:"name" bson:"name"`
	Score   int    `json:"score" bson:"score"`
	Comment string `json:"comment" bson:"comment"`
}

// Feedback is the scored evaluation of one interview attempt.
type Feedback struct {
	ID                  uuid.UUID       `json:"id"`
	InterviewID         uuid.UUID       `json:"interview_id"`
	UserID              uuid.UUID       `json:"user_id"`
	TotalScore          int             `json:"total_score"`
	CategoryScores      []CategoryScore `json:"category_scores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areas_for_improvement"`
	FinalAssessment     string          `json:"final_assessment"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Assessment is the structured result returned by the language model.
type Assessment struct {
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}

// Normalize returns the category scores in rubric order. Categories outside
// the rubric are dropped; a missing category or an out-of-range score is an error.
func (a *Assessment) Normalize() ([]CategoryScore, error) {
	if a.TotalScore < MinScore || a.TotalScore > MaxScore {
		return nil, fmt.Errorf("total score %d out of range", a.TotalScore)
	}

	byName := make(map[string]CategoryScore, len(a.CategoryScores))
	for _, cs := range a.CategoryScores {
		if _, seen := byName[cs.Name]; !seen {
			byName[cs.Name] = cs
		}
	}

	out := make([]CategoryScore, 0, RubricCategoryCount)
	for _, name := range RubricCategories() {
		cs, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("missing category %q", name)
		}
		if cs.Score < MinScore || cs.Score > MaxScore {
			return nil, fmt.Errorf("category %q score %d out of range", name, cs.Score)
		}
		out = append(out, cs)
	}
	return out, nil
}

// CreateFeedbackRequest is the payload for scoring a transcript directly.
type CreateFeedbackRequest struct {
	InterviewID uuid.UUID           `json:"interview_id" validate:"required"`
	Transcript  []TranscriptMessage `json:"transcript" validate:"required,min=1,dive"`
}

// TranscriptMessage is one turn of a call transcript as submitted by a client.
type TranscriptMessage struct {
	Role    string `json:"role" validate:"required,oneof=user system assistant"`
	Content string `json:"content" validate:"required"`
}

// CreateFeedbackResponse mirrors the generator result.
type CreateFeedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}
