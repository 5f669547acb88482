package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/phrazzld/scry-activities/internal/platform/migrate"
	"github.com/phrazzld/scry-activities/internal/platform/sqlite/migrations"
)

// Open opens the SQLite file at path and applies the embedded migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := migrate.Up(ctx, db, database.DialectSQLite3, migrations.FS, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("resume database ready", "path", filepath.Base(path))
	return db, nil
}
