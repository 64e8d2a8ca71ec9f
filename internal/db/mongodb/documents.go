package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// IDs are stored as canonical UUID strings so documents stay readable and
// match the other backends.

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type interviewDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Role       string    `bson:"role"`
	Level      string    `bson:"level"`
	Type       string    `bson:"type"`
	Techstack  []string  `bson:"techstack"`
	Questions  []string  `bson:"questions"`
	Finalized  bool      `bson:"finalized"`
	CoverImage string    `bson:"cover_image"`
	CreatedAt  time.Time `bson:"created_at"`
}

type feedbackDoc struct {
	ID                  string                `bson:"_id"`
	InterviewID         string                `bson:"interview_id"`
	UserID              string                `bson:"user_id"`
	TotalScore          int                   `bson:"total_score"`
	CategoryScores      []types.CategoryScore `bson:"category_scores"`
	Strengths           []string              `bson:"strengths"`
	AreasForImprovement []string              `bson:"areas_for_improvement"`
	FinalAssessment     string                `bson:"final_assessment"`
	CreatedAt           time.Time             `bson:"created_at"`
}

func (d userDoc) record() (*types.UserRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user %q: invalid id: %w", d.ID, err)
	}
	return &types.UserRecord{
		User:         types.User{ID: id, Name: d.Name, Email: d.Email, CreatedAt: d.CreatedAt.UTC()},
		PasswordHash: d.PasswordHash,
	}, nil
}

func newInterviewDoc(iv *types.Interview) interviewDoc {
	return interviewDoc{
		ID:         iv.ID.String(),
		UserID:     iv.UserID.String(),
		Role:       iv.Role,
		Level:      iv.Level,
		Type:       iv.Type,
		Techstack:  orEmpty(iv.Techstack),
		Questions:  orEmpty(iv.Questions),
		Finalized:  iv.Finalized,
		CoverImage: iv.CoverImage,
		CreatedAt:  iv.CreatedAt,
	}
}

func (d interviewDoc) interview() (types.Interview, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return types.Interview{}, fmt.Errorf("interview %q: invalid id: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return types.Interview{}, fmt.Errorf("interview %q: invalid user id: %w", d.ID, err)
	}
	return types.Interview{
		ID:         id,
		UserID:     userID,
		Role:       d.Role,
		Level:      d.Level,
		Type:       d.Type,
		Techstack:  orEmpty(d.Techstack),
		Questions:  orEmpty(d.Questions),
		Finalized:  d.Finalized,
		CoverImage: d.CoverImage,
		CreatedAt:  d.CreatedAt.UTC(),
	}, nil
}

func newFeedbackDoc(f *types.Feedback) feedbackDoc {
	return feedbackDoc{
		ID:                  f.ID.String(),
		InterviewID:         f.InterviewID.String(),
		UserID:              f.UserID.String(),
		TotalScore:          f.TotalScore,
		CategoryScores:      f.CategoryScores,
		Strengths:           orEmpty(f.Strengths),
		AreasForImprovement: orEmpty(f.AreasForImprovement),
		FinalAssessment:     f.FinalAssessment,
		CreatedAt:           f.CreatedAt,
	}
}

func (d feedbackDoc) feedback() (*types.Feedback, error) {
	ids := make([]uuid.UUID, 3)
	for i, raw := range []string{d.ID, d.InterviewID, d.UserID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("feedback %q: invalid id %q: %w", d.ID, raw, err)
		}
		ids[i] = id
	}
	return &types.Feedback{
		ID:                  ids[0],
		InterviewID:         ids[1],
		UserID:              ids[2],
		TotalScore:          d.TotalScore,
		CategoryScores:      d.CategoryScores,
		Strengths:           orEmpty(d.Strengths),
		AreasForImprovement: orEmpty(d.AreasForImprovement),
		FinalAssessment:     d.FinalAssessment,
		CreatedAt:           d.CreatedAt.UTC(),
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
