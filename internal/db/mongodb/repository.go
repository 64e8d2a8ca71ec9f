package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonathan/interview-coach/internal/types"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// CheckEmailExists reports whether an account uses email.
func (s *Store) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"email": normalizeEmail(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// CreateUser inserts an account. A taken e-mail yields types.ErrDuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:           id.String(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uuid.Nil, types.ErrDuplicateEmail
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser returns the account with id, or nil if there is none.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error) {
	return s.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail returns the account with email, or nil if there is none.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return s.findUser(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*types.UserRecord, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.record()
}

// CreateInterview inserts an interview.
func (s *Store) CreateInterview(ctx context.Context, iv *types.Interview) error {
	if _, err := s.interviews.InsertOne(ctx, newInterviewDoc(iv)); err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// GetInterview returns the interview with id, or nil if there is none.
func (s *Store) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	var doc interviewDoc
	if err := s.interviews.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	iv, err := doc.interview()
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// GetInterviewsByUser returns the interviews owned by userID, newest first.
func (s *Store) GetInterviewsByUser(ctx context.Context, userID uuid.UUID) ([]types.Interview, error) {
	return s.findInterviews(ctx,
		bson.M{"user_id": userID.String()},
		options.Find().SetSort(newestFirst))
}

// GetLatestInterviews returns up to limit finalized interviews not owned by
// excludeUserID, newest first.
func (s *Store) GetLatestInterviews(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]types.Interview, error) {
	return s.findInterviews(ctx,
		bson.M{"finalized": true, "user_id": bson.M{"$ne": excludeUserID.String()}},
		options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (s *Store) findInterviews(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]types.Interview, error) {
	cur, err := s.interviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []interviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read interviews: %w", err)
	}

	out := make([]types.Interview, 0, len(docs))
	for _, d := range docs {
		iv, err := d.interview()
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

// CreateFeedback inserts a feedback record. Earlier feedback for the same
// interview and user is kept.
func (s *Store) CreateFeedback(ctx context.Context, f *types.Feedback) error {
	if _, err := s.feedback.InsertOne(ctx, newFeedbackDoc(f)); err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// GetFeedbackByInterview returns the newest feedback of userID for
// interviewID, or nil if there is none.
func (s *Store) GetFeedbackByInterview(ctx context.Context, interviewID, userID uuid.UUID) (*types.Feedback, error) {
	var doc feedbackDoc
	err := s.feedback.FindOne(ctx,
		bson.M{"interview_id": interviewID.String(), "user_id": userID.String()},
		options.FindOne().SetSort(newestFirst),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return doc.feedback()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
