package events

import (
	"context"
	"log/slog"
	"sync"
)

type subscription struct {
	handler EventHandler
	types   map[string]struct{} // empty means every type
}

func (s subscription) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// InMemoryEventEmitter dispatches events synchronously to the handlers
// subscribed to their type, in registration order.
type InMemoryEventEmitter struct {
	subs   []subscription
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler subscribes handler to the given event types.
// With no types the handler receives every event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...string) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, sub)
	e.logger.Debug("registered event handler",
		"handler_count", len(e.subs),
		"event_types", types)
}

// EmitEvent publishes the event to every subscribed handler.
// A failing handler does not stop delivery to the others; the first error is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	log := e.logger.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"content_type", event.ContentType,
		"content_id", event.ContentID)

	var firstErr error
	delivered := 0
	for i, sub := range subs {
		if !sub.wants(event.Type) {
			continue
		}
		delivered++
		if err := sub.handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				"error", err,
				"handler_index", i)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if delivered == 0 {
		log.Debug("no handlers subscribed to event")
	}

	return firstErr
}
