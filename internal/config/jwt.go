package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultSessionHours is the session lifetime: seven days.
const DefaultSessionHours = 7 * 24

// SessionCookieName is the name of the HTTP-only session cookie.
const SessionCookieName = "session"

// JWTConfig holds configuration for session token signing and the session cookie.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	SecureCookie    bool
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default: 168) and
// marks the cookie Secure when APP_ENV is production.
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours, err := envInt("JWT_EXPIRATION_HOURS", DefaultSessionHours)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		SecureCookie:    envString("APP_ENV", EnvDevelopment) == EnvProduction,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// Expiration returns the session lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
