package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3/database"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/platform/migrate"
	"github.com/phrazzld/scry-activities/internal/platform/postgres"
	"github.com/phrazzld/scry-activities/internal/platform/postgres/migrations"
)

// handleMigrations runs one goose command against the content database.
// The resume database migrates itself when it is opened.
func handleMigrations(ctx context.Context, cfg *config.Config, l *slog.Logger, command string) error {
	log := l.With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
		"command", command)

	db, err := postgres.Open(ctx, cfg.Database.URL, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
		}
	}()

	switch command {
	case "up":
		version, err := postgres.Migrate(ctx, db, log)
		if err != nil {
			return err
		}
		log.Info("Migrations applied", "version", version)
		return nil
	case "down":
		return migrate.Down(ctx, db, database.DialectPostgres, migrations.FS, log)
	case "status":
		return migrate.Status(ctx, db, database.DialectPostgres, migrations.FS, log)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
