package events

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

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T, eventType string) *Event {
		event, err := NewEvent(eventType, domain.ContentTypeQuiz, uuid.New(), nil)
		require.NoError(t, err)
		return event
	}

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t, SessionStarted)))
	})

	t.Run("handlers receive subscribed types only", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		all := &MockEventHandler{}
		steps := &MockEventHandler{}
		emitter.RegisterHandler(all)
		emitter.RegisterHandler(steps, StepCompleted, SessionCompleted)

		started := newEvent(t, SessionStarted)
		require.NoError(t, emitter.EmitEvent(context.Background(), started))
		step := newEvent(t, StepCompleted)
		require.NoError(t, emitter.EmitEvent(context.Background(), step))

		assert.Equal(t, 2, all.HandledCount)
		assert.Equal(t, 1, steps.HandledCount)
		assert.Equal(t, step, steps.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.EmitEvent(context.Background(), newEvent(t, SessionCompleted))
		assert.EqualError(t, err, "handler error")

		// Both handlers should still have received the event
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})
}
