// Package app holds the wiring shared by the server and migrate binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"postboard/internal/config"
	"postboard/internal/migrations"
	"postboard/internal/repository"
	"postboard/internal/repository/postgres"
	"postboard/internal/repository/sqlite"
)

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg config.Config) (*logrus.Logger, error) {
	logger := logrus.New()

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Log.Format)
	}

	level := strings.TrimSpace(cfg.Log.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// Database is an open store together with the migration dialect it speaks.
type Database struct {
	DB      *sql.DB
	Dialect migrations.Dialect
	Users   repository.UserRepository
	Posts   repository.PostRepository
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// OpenDatabase connects to the configured driver and builds its repositories.
func OpenDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return &Database{
			DB:      db,
			Dialect: migrations.DialectSQLite,
			Users:   sqlite.NewUserRepository(db),
			Posts:   sqlite.NewPostRepository(db),
		}, nil
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return &Database{
			DB:      db,
			Dialect: migrations.DialectPostgres,
			Users:   postgres.NewUserRepository(db),
			Posts:   postgres.NewPostRepository(db),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
