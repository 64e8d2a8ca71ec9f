package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/interview-coach/internal/feedback"
	"github.com/jonathan/interview-coach/internal/transcript"
	"github.com/jonathan/interview-coach/internal/types"
)

var validate = validator.New()

// handleCreateFeedback scores a submitted transcript for the caller.
func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req types.CreateFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.interviews.ByID(r.Context(), req.InterviewID) == nil {
		s.errorResponse(w, http.StatusNotFound, "interview not found")
		return
	}

	result := s.feedback.Generate(r.Context(), feedback.Request{
		InterviewID: req.InterviewID,
		UserID:      userID,
		Transcript:  transcript.FromTypes(req.Transcript),
	})
	if !result.Success {
		s.jsonResponse(w, http.StatusInternalServerError, types.CreateFeedbackResponse{Success: false})
		return
	}
	s.jsonResponse(w, http.StatusOK, types.CreateFeedbackResponse{
		Success:    true,
		FeedbackID: result.FeedbackID.String(),
	})
}
