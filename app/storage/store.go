// Package storage is the demo application's persistence layer: a gorm-backed
// Store owned by the container as a singleton, and a per-request UnitOfWork
// every collaborator in a scope shares.
package storage

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/km-arc/go-ioc/app/models"
	"github.com/km-arc/go-ioc/framework/config"
)

// Store owns the database connection for the lifetime of the application.
// It implements Close(ctx), so DisposeAllSingletons shuts the pool down on
// the way out.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewStore opens the database named by DB_DSN and migrates the schema.
// Registered as a singleton; the connection is shared by every scope.
func NewStore(cfg *config.Config, log *slog.Logger) (*Store, error) {
	if cfg.DB.Driver != "sqlite" {
		return nil, errors.Errorf("unsupported database driver %q", cfg.DB.Driver)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DB.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}

	log.Info("database ready", "driver", cfg.DB.Driver, "dsn", cfg.DB.DSN)
	return &Store{db: db, log: log}, nil
}

// DB exposes the underlying connection for session-building collaborators.
func (s *Store) DB() *gorm.DB { return s.db }

// Close shuts down the connection pool.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "unwrapping sql.DB")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrap(err, "closing database")
	}
	s.log.Info("database closed")
	return nil
}
