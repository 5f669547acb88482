package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/generation"
	"github.com/phrazzld/scry-activities/internal/platform/clock"
	"github.com/phrazzld/scry-activities/internal/platform/gemini"
	"github.com/phrazzld/scry-activities/internal/platform/postgres"
	"github.com/phrazzld/scry-activities/internal/platform/sqlite"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/service"
	"github.com/phrazzld/scry-activities/internal/service/session"
	"github.com/phrazzld/scry-activities/internal/speech"
	"github.com/phrazzld/scry-activities/internal/store"
	"github.com/phrazzld/scry-activities/internal/task"
	"github.com/phrazzld/scry-activities/internal/wakelock"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db       *sql.DB
	resumeDB *sql.DB

	quizStore       store.QuizStore
	workoutStore    store.WorkoutStore
	listeningStore  store.ListeningStore
	resultStore     store.ResultStore
	resumeStore     store.ResumeStore
	generationStore store.GenerationStore
	taskStore       task.TaskStore

	generator         generation.Generator
	contentService    *service.ContentService
	generationService *service.GenerationService

	eventEmitter *events.InMemoryEventEmitter
	board        *render.Board
	wakeLock     *wakelock.Manager
	controller   *session.Controller

	taskRunner *task.TaskRunner
}

// newApplication opens storage and builds every service, engine and handler
// dependency. On error, anything already opened is closed.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if err = app.setupStorage(ctx); err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.contentService, err = service.NewContentService(service.ContentServiceConfig{
		DB:        app.db,
		Quizzes:   app.quizStore,
		Workouts:  app.workoutStore,
		Listening: app.listeningStore,
		Results:   app.resultStore,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create content service: %w", err)
	}

	if err = app.setupGeneration(ctx); err != nil {
		return nil, err
	}

	if err = app.setupSession(ctx); err != nil {
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupStorage connects the content database and the local resume database.
func (app *application) setupStorage(ctx context.Context) error {
	var err error
	app.db, err = postgres.Open(ctx, app.config.Database.URL, app.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to content database: %w", err)
	}
	if _, err := postgres.Migrate(ctx, app.db, app.logger.With("component", "migrations")); err != nil {
		return fmt.Errorf("failed to migrate content database: %w", err)
	}

	app.resumeDB, err = sqlite.Open(ctx, app.config.Resume.Path, app.logger)
	if err != nil {
		return fmt.Errorf("failed to open resume database: %w", err)
	}

	app.quizStore = postgres.NewQuizStore(app.db, app.logger)
	app.workoutStore = postgres.NewWorkoutStore(app.db, app.logger)
	app.listeningStore = postgres.NewListeningStore(app.db, app.logger)
	app.resultStore = postgres.NewPostgresResultStore(app.db, app.logger)
	app.generationStore = postgres.NewPostgresGenerationStore(app.db, app.logger)
	app.taskStore = postgres.NewPostgresTaskStore(app.db, app.logger)
	app.resumeStore = sqlite.NewResumeStore(app.resumeDB, app.logger)
	return nil
}

// setupGeneration builds the quiz generator, the task runner that executes
// generation requests and the service that accepts them.
func (app *application) setupGeneration(ctx context.Context) error {
	cfg := app.config
	enabled := cfg.LLM.GenerationEnabled()

	app.generator = generation.Disabled{}
	if enabled {
		g, err := gemini.NewGeminiGenerator(ctx, app.logger, cfg.LLM)
		if err != nil {
			return fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		app.generator = g
		app.logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)
	} else {
		app.logger.Warn("Quiz generation disabled: no LLM API key configured")
	}

	factory := task.NewQuizGenerationTaskFactory(app.generationStore, app.quizStore, app.generator, app.logger)
	app.taskRunner = task.NewTaskRunner(app.taskStore, factory.Factories(), task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, app.logger)
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	app.eventEmitter.RegisterHandler(
		task.NewTaskFactoryEventHandler(factory, app.taskRunner, app.logger),
		events.GenerationRequested)

	var err error
	app.generationService, err = service.NewGenerationService(app.generationStore, app.eventEmitter, enabled, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create generation service: %w", err)
	}
	return nil
}

// setupSession builds the three engines and the session controller and
// initializes the engines.
func (app *application) setupSession(ctx context.Context) error {
	cfg := app.config.Engine
	logger := app.logger

	var hosted []speech.Voice
	if cfg.VoicesPath != "" {
		voices, err := content.LoadVoices(cfg.VoicesPath)
		if err != nil {
			return fmt.Errorf("failed to load voice catalog: %w", err)
		}
		hosted = voices
		logger.Info("Voice catalog loaded", "voices", len(voices))
	}

	c := clock.Real{}
	synth := speech.NewPacedSynthesizer(c, cfg.WordsPerMinute, nil, logger)
	app.board = render.NewBoard()
	app.wakeLock = wakelock.NewManager(&wakelock.StateSentinel{}, logger)

	recorder := session.NewRecorder(app.resultStore, app.resumeStore, logger)
	app.eventEmitter.RegisterHandler(recorder, recorder.EventTypes()...)

	quizEngine, err := quiz.New(quiz.Config{
		Target:       app.board,
		Events:       app.eventEmitter,
		Resume:       app.resumeStore,
		Synth:        synth,
		HostedVoices: hosted,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create quiz engine: %w", err)
	}

	workoutEngine, err := workout.New(workout.Config{
		Target:   app.board,
		Events:   app.eventEmitter,
		Resume:   app.resumeStore,
		WakeLock: app.wakeLock,
		Clock:    c,
		Timings: workout.Timings{
			TickInterval:     cfg.TickInterval,
			DefaultRest:      cfg.DefaultRestSeconds,
			FallbackDuration: cfg.FallbackDurationSeconds,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create workout engine: %w", err)
	}

	listeningEngine, err := listening.New(listening.Config{
		Synth:        synth,
		HostedVoices: hosted,
		Clock:        c,
		Target:       app.board,
		Events:       app.eventEmitter,
		Resume:       app.resumeStore,
		Timings: listening.Timings{
			ShortPause:      cfg.ShortPause,
			LongPause:       cfg.LongPause,
			PostHeaderPause: cfg.PostHeaderPause,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create listening engine: %w", err)
	}

	app.controller, err = session.NewController(session.Config{
		Quizzes:         app.quizStore,
		Workouts:        app.workoutStore,
		Listening:       app.listeningStore,
		Resume:          app.resumeStore,
		QuizEngine:      quizEngine,
		WorkoutEngine:   workoutEngine,
		ListeningEngine: listeningEngine,
		Board:           app.board,
		Visibility:      app.wakeLock,
		Events:          app.eventEmitter,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create session controller: %w", err)
	}
	if err := app.controller.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize engines: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the active session and background work and closes storage.
func (app *application) cleanup() {
	if app.controller != nil {
		if err := app.controller.Stop(context.Background()); err != nil {
			app.logger.Error("Error stopping session", "error", err)
		}
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	for name, db := range map[string]*sql.DB{"content": app.db, "resume": app.resumeDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "database", name, "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
