package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

type interviewList struct {
	Interviews []types.Interview `json:"interviews"`
}

type dashboard struct {
	User       *types.User       `json:"user"`
	Interviews []types.Interview `json:"interviews"`
	Latest     []types.Interview `json:"latest"`
}

func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// handleListInterviews returns the caller's interviews, newest first.
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, interviewList{Interviews: s.interviews.ByUser(r.Context(), userID)})
}

// handleLatestInterviews returns other users' finalized interviews.
func (s *Server) handleLatestInterviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.jsonResponse(w, http.StatusOK, interviewList{
		Interviews: s.interviews.LatestExcludingUser(r.Context(), userID, limit),
	})
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	iv := s.interviews.ByID(r.Context(), id)
	if iv == nil {
		s.errorResponse(w, http.StatusNotFound, "interview not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, iv)
}

// handleGetFeedback returns the caller's most recent feedback for an interview.
func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	fb := s.interviews.FeedbackByInterviewAndUser(r.Context(), id, userID)
	if fb == nil {
		s.errorResponse(w, http.StatusNotFound, "feedback not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, fb)
}

// handleDashboard loads the user and both interview lists concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var out dashboard
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		user, err := s.auth.CurrentUser(ctx, middleware.TokenFromRequest(r))
		out.User = user
		return err
	})
	g.Go(func() error {
		out.Interviews = s.interviews.ByUser(ctx, userID)
		return nil
	})
	g.Go(func() error {
		out.Latest = s.interviews.LatestExcludingUser(ctx, userID, 0)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.authError(w, "dashboard failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}
