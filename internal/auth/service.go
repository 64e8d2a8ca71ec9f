// Package auth manages accounts and cookie-backed sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// UserStore is the account storage the service depends on.
type UserStore interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error)
}

// Session is an issued session token.
type Session struct {
	User      *types.User
	Token     string
	ExpiresAt time.Time
}

// Service provides account and session operations.
type Service struct {
	users       UserStore
	passwords   *config.PasswordConfig
	tokens      *TokenService
	revocations Revocations
	logger      *zap.Logger
}

// NewService creates a Service. A nil revocations store keeps sign-outs in memory.
func NewService(users UserStore, passwords *config.PasswordConfig, tokens *TokenService, revocations Revocations, logger *zap.Logger) *Service {
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}
	return &Service{
		users:       users,
		passwords:   passwords,
		tokens:      tokens,
		revocations: revocations,
		logger:      logging.OrNop(logger),
	}
}

// CreateAccount registers a new user. It does not sign the user in.
func (s *Service) CreateAccount(ctx context.Context, req *types.SignUpRequest) (*types.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	exists, err := s.users.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.users.CreateUser(ctx, req.Name, req.Email, hash)
	if err != nil {
		// Lost a race with a concurrent sign-up.
		if errors.Is(err, types.ErrDuplicateEmail) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	rec, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("created user not found: %s", id)
	}

	s.logger.Info("account created", zap.String("user_id", id.String()))
	return &rec.User, nil
}

// Authenticate verifies credentials and issues a session token. Unknown
// e-mails and wrong passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, req *types.SignInRequest) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, &ErrInvalidCredentials{}
	}

	rec, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if rec == nil || !s.passwords.VerifyPassword(req.Password, rec.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	token, claims, err := s.tokens.Issue(rec.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signed in", zap.String("user_id", rec.ID.String()))
	user := rec.User
	return &Session{User: &user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Claims validates token and checks that it has not been revoked.
func (s *Service) Claims(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// CurrentUser resolves the user a token belongs to.
func (s *Service) CurrentUser(ctx context.Context, token string) (*types.User, error) {
	claims, err := s.Claims(ctx, token)
	if err != nil {
		return nil, err
	}

	rec, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if rec == nil {
		return nil, ErrUnauthenticated
	}
	return &rec.User, nil
}

// SignOut revokes token until it expires. Invalid tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info("signed out", zap.String("user_id", claims.UserID.String()))
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: strings.ToLower(fe.Field()), Message: validationMessage(fe)}
	}
	return &ErrValidation{Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// AsTokenValidator adapts the service to the session middleware.
func (s *Service) AsTokenValidator() middleware.TokenValidator {
	return tokenValidator{s}
}

type tokenValidator struct{ s *Service }

func (v tokenValidator) ValidateToken(ctx context.Context, token string) (middleware.UserIDGetter, error) {
	claims, err := v.s.Claims(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
