package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/domain"
)

type fakeOptions struct {
	Flag bool
}

type fakeHooks struct {
	prepared  []*Session[string, fakeOptions]
	teardowns int
	failNext  error
}

func (h *fakeHooks) Prepare(_ context.Context, s *Session[string, fakeOptions]) error {
	if h.failNext != nil {
		err := h.failNext
		h.failNext = nil
		return err
	}
	h.prepared = append(h.prepared, s)
	return nil
}

func (h *fakeHooks) Teardown() { h.teardowns++ }

func (h *fakeHooks) Progress(s *Session[string, fakeOptions]) Progress {
	return NewProgress(1, len(s.Payload))
}

type pausingHooks struct {
	fakeHooks
	paused, resumed int
}

func (h *pausingHooks) Pause()  { h.paused++ }
func (h *pausingHooks) Resume() { h.resumed++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBase(t *testing.T, hooks Hooks[string, fakeOptions]) *Base[string, fakeOptions] {
	t.Helper()
	b, err := NewBase[string, fakeOptions](domain.ContentTypeQuiz, hooks, discardLogger())
	require.NoError(t, err)
	return b
}

func TestNewBaseRequiresHooks(t *testing.T) {
	t.Parallel()

	_, err := NewBase[string, fakeOptions](domain.ContentTypeQuiz, nil, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAbstractEngine)

	var lerr *LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "construct", lerr.Operation)
}

func TestLifecycleBeforeInit(t *testing.T) {
	t.Parallel()

	b := newTestBase(t, &fakeHooks{})
	ctx := context.Background()

	calls := map[string]func() error{
		"start":   func() error { return b.Start(ctx, "abc", uuid.New(), fakeOptions{}) },
		"pause":   b.Pause,
		"resume":  b.Resume,
		"stop":    b.Stop,
		"restart": func() error { return b.Restart(ctx) },
		"progress": func() error {
			_, err := b.Progress()
			return err
		},
		"do": func() error {
			return b.Do("answer", func(*Session[string, fakeOptions]) error { return nil })
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestStartStopRestart(t *testing.T) {
	t.Parallel()

	hooks := &fakeHooks{}
	b := newTestBase(t, hooks)
	ctx := context.Background()
	require.NoError(t, b.Init(ctx))
	require.NoError(t, b.Init(ctx))

	id := uuid.New()
	require.NoError(t, b.Start(ctx, "abcd", id, fakeOptions{Flag: true}))
	assert.True(t, b.Active())
	require.Len(t, hooks.prepared, 1)
	assert.False(t, hooks.prepared[0].Restart)

	progress, err := b.Progress()
	require.NoError(t, err)
	assert.Equal(t, Progress{Current: 1, Total: 4, Percentage: 25}, progress)

	require.NoError(t, b.Restart(ctx))
	require.Len(t, hooks.prepared, 2)
	restarted := hooks.prepared[1]
	assert.True(t, restarted.Restart)
	assert.Equal(t, "abcd", restarted.Payload)
	assert.Equal(t, id, restarted.ID)
	assert.True(t, restarted.Options.Flag)
	assert.Equal(t, 1, hooks.teardowns)

	require.NoError(t, b.Stop())
	assert.False(t, b.Active())
	assert.Equal(t, 2, hooks.teardowns)

	progress, err = b.Progress()
	require.NoError(t, err)
	assert.Equal(t, Progress{}, progress)

	// Restart without a session is a no-op.
	require.NoError(t, b.Restart(ctx))
	assert.Len(t, hooks.prepared, 2)

	err = b.Do("answer", func(*Session[string, fakeOptions]) error { return nil })
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStartReplacesPreviousSession(t *testing.T) {
	t.Parallel()

	hooks := &fakeHooks{}
	b := newTestBase(t, hooks)
	ctx := context.Background()
	require.NoError(t, b.Init(ctx))

	require.NoError(t, b.Start(ctx, "a", uuid.New(), fakeOptions{}))
	require.NoError(t, b.Start(ctx, "b", uuid.New(), fakeOptions{}))
	assert.Equal(t, 1, hooks.teardowns)

	err := b.Do("check", func(s *Session[string, fakeOptions]) error {
		assert.Equal(t, "b", s.Payload)
		return nil
	})
	require.NoError(t, err)
}

func TestStartPrepareFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	hooks := &fakeHooks{failNext: boom}
	b := newTestBase(t, hooks)
	require.NoError(t, b.Init(context.Background()))

	err := b.Start(context.Background(), "a", uuid.New(), fakeOptions{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.Active())
	assert.Equal(t, 1, hooks.teardowns)
}

func TestPauseResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("without pauser is a no-op", func(t *testing.T) {
		b := newTestBase(t, &fakeHooks{})
		require.NoError(t, b.Init(ctx))
		require.NoError(t, b.Start(ctx, "a", uuid.New(), fakeOptions{}))
		assert.NoError(t, b.Pause())
		assert.NoError(t, b.Resume())
	})

	t.Run("delegates to pauser", func(t *testing.T) {
		hooks := &pausingHooks{}
		b := newTestBase(t, hooks)
		require.NoError(t, b.Init(ctx))

		// Ignored without a session.
		require.NoError(t, b.Pause())
		assert.Equal(t, 0, hooks.paused)

		require.NoError(t, b.Start(ctx, "a", uuid.New(), fakeOptions{}))
		require.NoError(t, b.Pause())
		require.NoError(t, b.Resume())
		assert.Equal(t, 1, hooks.paused)
		assert.Equal(t, 1, hooks.resumed)
	})
}

func TestReopen(t *testing.T) {
	t.Parallel()

	hooks := &fakeHooks{}
	b := newTestBase(t, hooks)
	ctx := context.Background()
	require.NoError(t, b.Init(ctx))

	assert.ErrorIs(t, b.Reopen(ctx, nil), ErrNoSession)

	id := uuid.New()
	require.NoError(t, b.Start(ctx, "abc", id, fakeOptions{}))
	require.NoError(t, b.Reopen(ctx, func(_ *Session[string, fakeOptions], opts *fakeOptions) {
		opts.Flag = true
	}))

	require.Len(t, hooks.prepared, 2)
	reopened := hooks.prepared[1]
	assert.True(t, reopened.Options.Flag)
	assert.False(t, reopened.Restart)
	assert.Equal(t, id, reopened.ID)
}

func TestNewProgress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, NewProgress(0, 0).Percentage)
	assert.Equal(t, 33.33, NewProgress(1, 3).Percentage)
	assert.Equal(t, 100.0, NewProgress(5, 5).Percentage)
}
