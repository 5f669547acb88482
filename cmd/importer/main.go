// Package main implements the content importer, which validates YAML and JSON
// content files and upserts their quizzes, workouts and listening sets into
// the content database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/platform/postgres"
	"github.com/phrazzld/scry-activities/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envPath    string
	dryRun     bool
	paths      []string
}

func parseArgs(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to a config file (defaults to environment only)")
	fs.StringVar(&opts.envPath, "env", ".env", "Path to a dotenv file; missing files are ignored")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate the content without writing it")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) == 0 {
		return options{}, errors.New("at least one content file or directory is required")
	}
	return opts, nil
}

// run loads every path into one bundle, validates it and imports it.
// With -dry-run it stops after validation and needs no database.
func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	if opts.envPath != "" {
		if err := godotenv.Load(opts.envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", opts.envPath, err)
		}
	}

	var bundle content.Bundle
	for _, path := range opts.paths {
		b, err := content.Load(path)
		if err != nil {
			return err
		}
		bundle.Merge(b)
	}
	if bundle.Len() == 0 {
		return errors.New("no content documents found")
	}
	bundle.Prepare(time.Now())
	if err := bundle.Validate(); err != nil {
		return err
	}

	if opts.dryRun {
		_, err := fmt.Fprintf(out, "valid: %d quizzes, %d workouts, %d listening sets (%d unsupported items)\n",
			len(bundle.Quizzes), len(bundle.Workouts), len(bundle.ListeningSets), bundle.UnknownVariants())
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	report, err := importBundle(ctx, cfg, l, bundle)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "imported: %d quizzes, %d workouts, %d listening sets (%d unsupported items)\n",
		report.Quizzes, report.Workouts, report.ListeningSets, report.UnknownVariants)
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func importBundle(ctx context.Context, cfg *config.Config, l *slog.Logger, bundle content.Bundle) (service.ImportReport, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL, l)
	if err != nil {
		return service.ImportReport{}, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("Error closing database connection", "error", err)
		}
	}()

	if _, err := postgres.Migrate(ctx, db, l); err != nil {
		return service.ImportReport{}, err
	}

	svc, err := service.NewContentService(service.ContentServiceConfig{
		DB:        db,
		Quizzes:   postgres.NewQuizStore(db, l),
		Workouts:  postgres.NewWorkoutStore(db, l),
		Listening: postgres.NewListeningStore(db, l),
		Results:   postgres.NewPostgresResultStore(db, l),
		Logger:    l,
	})
	if err != nil {
		return service.ImportReport{}, err
	}
	return svc.Import(ctx, bundle)
}
