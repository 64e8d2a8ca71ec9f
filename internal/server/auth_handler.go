package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/auth"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// handleSignUp creates an account. The caller still has to sign in.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req types.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.auth.CreateAccount(r.Context(), &req)
	if err != nil {
		s.authError(w, "sign-up failed", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Account created successfully. Please sign in.",
		"user":    user,
	})
}

// handleSignIn verifies credentials and sets the session cookie.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req types.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.auth.Authenticate(r.Context(), &req)
	if err != nil {
		s.authError(w, "sign-in failed", err)
		return
	}

	auth.SetSessionCookie(w, s.jwt, session.Token)
	s.jsonResponse(w, http.StatusOK, types.SignInResponse{
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// handleSignOut revokes the session and clears the cookie. Signing out
// without a session succeeds.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			s.logger.Error("failed to revoke session", zap.Error(err))
			s.errorResponse(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	auth.ClearSessionCookie(w, s.jwt)
	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// handleMe returns the signed-in user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.CurrentUser(r.Context(), middleware.TokenFromRequest(r))
	if err != nil {
		s.authError(w, "current user lookup failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) authError(w http.ResponseWriter, msg string, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	}
	s.errorResponse(w, status, publicMessage(err))
}
