// Package memory is an in-process store for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// Store keeps every record in maps guarded by one lock.
type Store struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]types.UserRecord
	emails     map[string]uuid.UUID
	interviews map[uuid.UUID]types.Interview
	feedback   []types.Feedback
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]types.UserRecord),
		emails:     make(map[string]uuid.UUID),
		interviews: make(map[uuid.UUID]types.Interview),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// CheckEmailExists reports whether an account uses email.
func (s *Store) CheckEmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emails[normalizeEmail(email)]
	return ok, nil
}

// CreateUser inserts an account. A taken e-mail yields types.ErrDuplicateEmail.
func (s *Store) CreateUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	if _, ok := s.emails[key]; ok {
		return uuid.Nil, types.ErrDuplicateEmail
	}
	id := uuid.New()
	s.users[id] = types.UserRecord{
		User:         types.User{ID: id, Name: name, Email: key, CreatedAt: time.Now().UTC()},
		PasswordHash: passwordHash,
	}
	s.emails[key] = id
	return id, nil
}

// GetUser returns the account with id, or nil if there is none.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*types.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetUserByEmail returns the account with email, or nil if there is none.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*types.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

// CreateInterview inserts an interview.
func (s *Store) CreateInterview(_ context.Context, iv *types.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interviews[iv.ID] = cloneInterview(*iv)
	return nil
}

// GetInterview returns the interview with id, or nil if there is none.
func (s *Store) GetInterview(_ context.Context, id uuid.UUID) (*types.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, nil
	}
	out := cloneInterview(iv)
	return &out, nil
}

// GetInterviewsByUser returns the interviews owned by userID, newest first.
func (s *Store) GetInterviewsByUser(_ context.Context, userID uuid.UUID) ([]types.Interview, error) {
	return s.selectInterviews(func(iv types.Interview) bool { return iv.UserID == userID }, 0), nil
}

// GetLatestInterviews returns up to limit finalized interviews not owned by
// excludeUserID, newest first.
func (s *Store) GetLatestInterviews(_ context.Context, excludeUserID uuid.UUID, limit int) ([]types.Interview, error) {
	return s.selectInterviews(func(iv types.Interview) bool {
		return iv.Finalized && iv.UserID != excludeUserID
	}, limit), nil
}

func (s *Store) selectInterviews(keep func(types.Interview) bool, limit int) []types.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []types.Interview{}
	for _, iv := range s.interviews {
		if keep(iv) {
			out = append(out, cloneInterview(iv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CreateFeedback appends a feedback record.
func (s *Store) CreateFeedback(_ context.Context, f *types.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, cloneFeedback(*f))
	return nil
}

// GetFeedbackByInterview returns the newest feedback of userID for
// interviewID, or nil if there is none. Ties go to the later insert.
func (s *Store) GetFeedbackByInterview(_ context.Context, interviewID, userID uuid.UUID) (*types.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *types.Feedback
	for i := range s.feedback {
		f := &s.feedback[i]
		if f.InterviewID != interviewID || f.UserID != userID {
			continue
		}
		if best == nil || !f.CreatedAt.Before(best.CreatedAt) {
			best = f
		}
	}
	if best == nil {
		return nil, nil
	}
	out := cloneFeedback(*best)
	return &out, nil
}

// FeedbackCount returns the number of stored feedback records.
func (s *Store) FeedbackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}

func cloneInterview(iv types.Interview) types.Interview {
	iv.Techstack = append([]string{}, iv.Techstack...)
	iv.Questions = append([]string{}, iv.Questions...)
	return iv
}

func cloneFeedback(f types.Feedback) types.Feedback {
	f.CategoryScores = append([]types.CategoryScore{}, f.CategoryScores...)
	f.Strengths = append([]string{}, f.Strengths...)
	f.AreasForImprovement = append([]string{}, f.AreasForImprovement...)
	return f
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
