// Package migrate applies embedded goose migrations to a database.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// TableName is the table goose uses to track applied migrations.
const TableName = "schema_migrations"

// slogGooseLogger adapts the goose logger interface to use slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// It does not exit; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Up applies every pending migration in fsys and returns the resulting version.
func Up(ctx context.Context, db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) (int64, error) {
	provider, err := newProvider(db, dialect, fsys, logger)
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Debug("applied migration",
			"version", r.Source.Version,
			"duration_ms", r.Duration.Milliseconds())
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("database schema up to date", "dialect", dialect, "version", version, "applied", len(results))
	return version, nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) error {
	provider, err := newProvider(db, dialect, fsys, logger)
	if err != nil {
		return err
	}
	if _, err := provider.Down(ctx); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Status logs the state of every known migration.
func Status(ctx context.Context, db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) error {
	provider, err := newProvider(db, dialect, fsys, logger)
	if err != nil {
		return err
	}
	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		logger.Info("migration status",
			"version", s.Source.Version,
			"path", s.Source.Path,
			"state", s.State,
			"applied_at", s.AppliedAt)
	}
	return nil
}

func newProvider(db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) (*goose.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := database.NewStore(dialect, TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}

	provider, err := goose.NewProvider("", db, fsys,
		goose.WithStore(store),
		goose.WithLogger(&slogGooseLogger{logger: logger.With("component", "migrations")}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}
