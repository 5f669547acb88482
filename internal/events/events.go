package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Event types
const (
	// SessionStarted is emitted when an engine starts a session.
	SessionStarted = "session_started"
	// StepCompleted is emitted after each answered question, finished exercise
	// step, or announced pair. Its payload is a StepPayload.
	StepCompleted = "step_completed"
	// SessionCompleted is emitted on normal completion. Its payload is a CompletedPayload.
	SessionCompleted = "session_completed"
	// SessionStopped is emitted when a session is stopped before completion.
	SessionStopped = "session_stopped"
	// GenerationRequested asks for a background quiz generation task.
	// Its payload is a domain.GenerationRequest.
	GenerationRequested = "generation_requested"
)

// Event is an envelope dispatched to registered handlers.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the event type constants
	Type string `json:"type"`

	// ContentType and ContentID identify the content the event concerns, if any
	ContentType domain.ContentType `json:"content_type,omitempty"`
	ContentID   uuid.UUID          `json:"content_id,omitempty"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// StepPayload carries the resumable position after a step.
type StepPayload struct {
	Index int   `json:"index"`
	Score int   `json:"score"`
	Order []int `json:"order,omitempty"`
}

// CompletedPayload summarizes a completed session.
type CompletedPayload struct {
	Score        int  `json:"score"`
	Total        int  `json:"total"`
	MistakesOnly bool `json:"mistakes_only"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type, content and payload.
// A nil payload produces an event without a payload.
func NewEvent(eventType string, contentType domain.ContentType, contentID uuid.UUID, payload interface{}) (*Event, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = b
	}

	return &Event{
		ID:          uuid.New(),
		Type:        eventType,
		ContentType: contentType,
		ContentID:   contentID,
		Payload:     payloadBytes,
		CreatedAt:   time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they are not interested in.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
