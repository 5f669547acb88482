package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/api/middleware"
	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/mocks"
	"github.com/phrazzld/scry-activities/internal/platform/clock"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/service"
	"github.com/phrazzld/scry-activities/internal/service/session"
	"github.com/phrazzld/scry-activities/internal/speech"
	"github.com/phrazzld/scry-activities/internal/wakelock"
)

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(""))
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SCRY_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SCRY_DOTENV_PROBE") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("SCRY_DOTENV_PROBE"))
}

// newTestApplication builds an application over in-memory stores, skipping
// the databases.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := &application{
		config: &config.Config{Server: config.ServerConfig{Port: 0, ShutdownTimeout: time.Second}},
		logger: logger,
	}

	quizzes := mocks.NewMockQuizStore()
	workouts := mocks.NewMockWorkoutStore()
	sets := mocks.NewMockListeningStore()
	results := &mocks.MockResultStore{}
	resume := &mocks.MockResumeStore{}

	var err error
	app.contentService, err = service.NewContentService(service.ContentServiceConfig{
		Quizzes: quizzes, Workouts: workouts, Listening: sets, Results: results, Logger: logger,
	})
	require.NoError(t, err)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.generationService, err = service.NewGenerationService(mocks.NewMockGenerationStore(), app.eventEmitter, false, logger)
	require.NoError(t, err)

	c := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	app.board = render.NewBoard()
	app.wakeLock = wakelock.NewManager(&wakelock.StateSentinel{}, logger)

	q, err := quiz.New(quiz.Config{Target: app.board, Events: app.eventEmitter, Logger: logger})
	require.NoError(t, err)
	w, err := workout.New(workout.Config{
		Target: app.board, Events: app.eventEmitter, WakeLock: app.wakeLock, Clock: c, Logger: logger,
	})
	require.NoError(t, err)
	l, err := listening.New(listening.Config{
		Synth: speech.NewPacedSynthesizer(c, 150, nil, logger), Clock: c,
		Target: app.board, Events: app.eventEmitter, Logger: logger,
	})
	require.NoError(t, err)

	app.controller, err = session.NewController(session.Config{
		Quizzes: quizzes, Workouts: workouts, Listening: sets, Resume: resume,
		QuizEngine: q, WorkoutEngine: w, ListeningEngine: l,
		Board: app.board, Visibility: app.wakeLock, Events: app.eventEmitter, Logger: logger,
	})
	require.NoError(t, err)
	return app
}

func TestRouter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApplication(t).setupRouter())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.NotEmpty(t, resp.Header.Get(middleware.TraceHeader))

	resp, err = srv.Client().Get(srv.URL + "/api/session/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Post(srv.URL+"/api/generations", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartHTTPServerStopsOnCancel(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.startHTTPServer(ctx, http.NotFoundHandler()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
