package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/types"
)

type generateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleGenerateInterview is the voice workflow's hook that turns the
// collected preferences into a finalized interview.
func (s *Server) handleGenerateInterview(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateInterviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, generateResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, generateResponse{Error: err.Error()})
		return
	}

	if _, err := s.generator.Generate(r.Context(), &req); err != nil {
		s.logger.Error("interview generation failed",
			zap.String("user_id", req.UserID.String()),
			zap.String("role", req.Role),
			zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, generateResponse{Error: "failed to generate interview"})
		return
	}
	s.jsonResponse(w, http.StatusOK, generateResponse{Success: true})
}
