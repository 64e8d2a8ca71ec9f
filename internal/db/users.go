package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// CheckEmailExists reports whether an account uses email.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		normalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// CreateUser inserts an account and returns its ID. A taken e-mail yields
// types.ErrDuplicateEmail.
func (db *DB) CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		name, normalizeEmail(email), passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, types.ErrDuplicateEmail
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser returns the account with id, or nil if there is none.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error) {
	return db.scanUser(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

// GetUserByEmail returns the account with email, or nil if there is none.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return db.scanUser(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`,
		normalizeEmail(email))
}

func (db *DB) scanUser(ctx context.Context, query string, arg any) (*types.UserRecord, error) {
	var u types.UserRecord
	err := db.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
