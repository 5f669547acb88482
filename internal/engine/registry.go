package engine

import (
	"log/slog"
	"sync"
)

// Registry holds the single active engine for a controller. Activating an
// engine stops the previously active one first.
type Registry struct {
	mu     sync.Mutex
	active Engine
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger.With("component", "engine_registry")}
}

// Activate makes e the active engine, stopping the previous one if it differs.
// A failure to stop the previous engine is logged and does not block activation.
func (r *Registry) Activate(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil && r.active != e {
		if err := r.active.Stop(); err != nil {
			r.logger.Warn("failed to stop previous engine",
				"error", err,
				"engine", r.active.Kind())
		}
	}
	r.active = e
	r.logger.Debug("engine activated", "engine", e.Kind())
}

// Active returns the active engine, or nil.
func (r *Registry) Active() Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Deactivate stops and forgets the active engine.
func (r *Registry) Deactivate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return nil
	}
	err := r.active.Stop()
	r.active = nil
	return err
}
