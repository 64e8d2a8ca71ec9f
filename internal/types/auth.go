// Package types provides the records and request/response shapes shared across the interview coach.
package types

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrDuplicateEmail is returned by storage backends when an account with the
// same e-mail already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// SignUpRequest represents the sign-up form.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInRequest represents the sign-in form.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the public view of an account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	User
	PasswordHash string `json:"-"` // Never serialize to JSON
}

// SignInResponse is returned after a successful sign-in.
type SignInResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate validates the SignUpRequest using the validator.
func (r *SignUpRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the SignInRequest using the validator.
func (r *SignInRequest) Validate() error {
	return validator.New().Struct(r)
}
