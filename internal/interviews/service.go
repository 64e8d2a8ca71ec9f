// Package interviews reads and writes interviews and their feedback, and
// generates new interviews from a role description.
package interviews

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/types"
)

// Latest-list bounds.
const (
	DefaultLatestLimit = 20
	MaxLatestLimit     = 100
)

// Repository is the storage contract shared by every backend.
type Repository interface {
	CreateInterview(ctx context.Context, iv *types.Interview) error
	GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error)
	GetInterviewsByUser(ctx context.Context, userID uuid.UUID) ([]types.Interview, error)
	GetLatestInterviews(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]types.Interview, error)
	CreateFeedback(ctx context.Context, f *types.Feedback) error
	GetFeedbackByInterview(ctx context.Context, interviewID, userID uuid.UUID) (*types.Feedback, error)
}

// Service wraps a Repository. Read failures are logged and reported as empty
// results so pages can render an empty state.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a Service over repo.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

// ClampLimit bounds a requested page size; zero or negative means the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLatestLimit
	case limit > MaxLatestLimit:
		return MaxLatestLimit
	default:
		return limit
	}
}

// ByUser returns the caller's interviews, newest first.
func (s *Service) ByUser(ctx context.Context, userID uuid.UUID) []types.Interview {
	list, err := s.repo.GetInterviewsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user interviews", zap.String("user_id", userID.String()), zap.Error(err))
		return []types.Interview{}
	}
	return list
}

// LatestExcludingUser returns finalized interviews of other users, newest first.
func (s *Service) LatestExcludingUser(ctx context.Context, userID uuid.UUID, limit int) []types.Interview {
	list, err := s.repo.GetLatestInterviews(ctx, userID, ClampLimit(limit))
	if err != nil {
		s.logger.Error("failed to list latest interviews", zap.String("user_id", userID.String()), zap.Error(err))
		return []types.Interview{}
	}

	// Backends filter already; this keeps the guarantee independent of them.
	out := list[:0]
	for _, iv := range list {
		if iv.Finalized && iv.UserID != userID {
			out = append(out, iv)
		}
	}
	return out
}

// ByID returns one interview, or nil.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) *types.Interview {
	iv, err := s.repo.GetInterview(ctx, id)
	if err != nil {
		s.logger.Error("failed to get interview", zap.String("interview_id", id.String()), zap.Error(err))
		return nil
	}
	return iv
}

// FeedbackByInterviewAndUser returns the most recent feedback, or nil.
func (s *Service) FeedbackByInterviewAndUser(ctx context.Context, interviewID, userID uuid.UUID) *types.Feedback {
	f, err := s.repo.GetFeedbackByInterview(ctx, interviewID, userID)
	if err != nil {
		s.logger.Error("failed to get feedback",
			zap.String("interview_id", interviewID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil
	}
	return f
}

// Create persists an interview.
func (s *Service) Create(ctx context.Context, iv *types.Interview) error {
	return s.repo.CreateInterview(ctx, iv)
}
