// Package main implements the entry point for the Scry activities server,
// which stores quizzes, workouts and listening sets and drives one activity
// session at a time over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to environment only)")
	envPath := flag.String("env", ".env", "Path to a dotenv file; missing files are ignored")
	migrateCmd := flag.String("migrate", "", "Run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := loadDotEnv(*envPath); err != nil {
		log.Fatalf("Failed to load %s: %v", *envPath, err)
	}

	cfg, l, err := initializeApp(*configPath)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateCmd != "" {
		if err := handleMigrations(ctx, cfg, l, *migrateCmd); err != nil {
			l.Error("Migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		l.Error("Failed to build application", "error", err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		l.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp(configPath string) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"generation_enabled", cfg.LLM.GenerationEnabled())
	l.Debug("Storage configuration",
		"database_url_present", cfg.Database.URL != "",
		"resume_path", cfg.Resume.Path)

	return cfg, l, nil
}
