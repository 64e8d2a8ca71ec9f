//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpRequest_Validation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name    string
		request SignUpRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			request: SignUpRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "password123"},
		},
		{
			name:    "name too short",
			request: SignUpRequest{Name: "Jo", Email: "jo@example.com", Password: "password123"},
			wantErr: true,
		},
		{
			name:    "invalid email",
			request: SignUpRequest{Name: "Jane Doe", Email: "not-an-email", Password: "password123"},
			wantErr: true,
		},
		{
			name:    "short password",
			request: SignUpRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "short"},
			wantErr: true,
		},
		{
			name:    "missing password",
			request: SignUpRequest{Name: "Jane Doe", Email: "jane@example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignInRequest_ValidateMethod(t *testing.T) {
	valid := &SignInRequest{Email: "jane@example.com", Password: "x"}
	assert.NoError(t, valid.Validate())

	invalid := &SignInRequest{Email: "jane@example.com"}
	assert.Error(t, invalid.Validate())
}

func TestUserRecord_PasswordHashNotSerialized(t *testing.T) {
	rec := UserRecord{
		User:         User{Name: "Jane", Email: "jane@example.com"},
		PasswordHash: "$2a$10$secret",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "jane@example.com")
}
