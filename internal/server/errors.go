package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/interview-coach/internal/auth"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		exists     *auth.ErrEmailAlreadyExists
		invalid    *auth.ErrInvalidCredentials
		validation *auth.ErrValidation
	)
	switch {
	case errors.As(err, &exists):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error details from clients.
func publicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
