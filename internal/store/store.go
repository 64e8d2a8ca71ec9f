// Package store opens the storage backend selected in configuration.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/db/memory"
	"github.com/jonathan/interview-coach/internal/db/mongodb"
	"github.com/jonathan/interview-coach/internal/interviews"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/types"
)

// Users is the account storage used by the auth service.
type Users interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error)
}

// Store is everything the service needs from a backend.
type Store interface {
	Users
	interviews.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*db.DB)(nil)
	_ Store = (*mongodb.Store)(nil)
	_ Store = (*memory.Store)(nil)
)

// Open connects to the configured backend.
func Open(ctx context.Context, cfg *config.App, logger *zap.Logger) (Store, error) {
	logger = logging.OrNop(logger)

	switch cfg.StoreBackend {
	case config.StorePostgres:
		pg, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return pg, nil
	case config.StoreMongo:
		m, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info("using mongo store", zap.String("database", cfg.MongoDatabase))
		return m, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
