// Package wakelock keeps the display awake while any session needs it.
//
// The Manager counts references per source. The platform lock is acquired
// when the first reference is added and released when the last one is
// removed, so independent holders never release each other's lock. When the
// platform drops the lock (the page is hidden, or the system revokes it)
// while references remain, the next visibility signal reacquires it.
package wakelock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrEmptySource is returned when a reference is added without a source ID.
var ErrEmptySource = errors.New("wake lock source cannot be empty")

// Sentinel is the platform wake lock.
type Sentinel interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Manager is a reference-counted wake lock shared by all engines.
type Manager struct {
	mu       sync.Mutex
	sentinel Sentinel
	refs     map[string]int
	total    int
	held     bool
	visible  bool
	logger   *slog.Logger
}

// NewManager creates a manager over the given platform sentinel.
// The manager starts visible.
func NewManager(sentinel Sentinel, logger *slog.Logger) *Manager {
	if sentinel == nil {
		panic("sentinel cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sentinel: sentinel,
		refs:     make(map[string]int),
		visible:  true,
		logger:   logger.With("component", "wake_lock"),
	}
}

// AddReference records a holder. The first reference acquires the lock.
func (m *Manager) AddReference(ctx context.Context, sourceID string) error {
	if sourceID == "" {
		return ErrEmptySource
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs[sourceID]++
	m.total++
	m.logger.DebugContext(ctx, "wake lock reference added",
		"source", sourceID,
		"references", m.total)

	return m.ensureLocked(ctx)
}

// RemoveReference drops one reference of sourceID. Removing the last
// reference releases the lock. Removing an unknown source is a no-op.
func (m *Manager) RemoveReference(ctx context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs[sourceID] == 0 {
		m.logger.WarnContext(ctx, "wake lock reference not held", "source", sourceID)
		return nil
	}

	m.refs[sourceID]--
	if m.refs[sourceID] == 0 {
		delete(m.refs, sourceID)
	}
	m.total--
	m.logger.DebugContext(ctx, "wake lock reference removed",
		"source", sourceID,
		"references", m.total)

	if m.total > 0 || !m.held {
		return nil
	}

	m.held = false
	if err := m.sentinel.Release(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to release wake lock", "error", err)
		return err
	}
	m.logger.InfoContext(ctx, "wake lock released")
	return nil
}

// VisibilityChanged records a visibility signal. Hiding drops the platform
// lock; becoming visible reacquires it if references remain.
func (m *Manager) VisibilityChanged(ctx context.Context, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visible = visible
	if !visible {
		if m.held {
			m.logger.InfoContext(ctx, "wake lock dropped while hidden", "references", m.total)
		}
		m.held = false
		return nil
	}

	return m.ensureLocked(ctx)
}

// Lost records that the platform revoked the lock. It is reacquired on the
// next visibility signal while references remain.
func (m *Manager) Lost(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held {
		m.logger.InfoContext(ctx, "wake lock lost", "references", m.total)
	}
	m.held = false
}

// Held reports whether the platform lock is currently held.
func (m *Manager) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// References returns the total number of references.
func (m *Manager) References() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// ReferencesFor returns the number of references held by sourceID.
func (m *Manager) ReferencesFor(sourceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[sourceID]
}

func (m *Manager) ensureLocked(ctx context.Context) error {
	if m.held || m.total == 0 || !m.visible {
		return nil
	}

	if err := m.sentinel.Acquire(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to acquire wake lock", "error", err)
		return err
	}
	m.held = true
	m.logger.InfoContext(ctx, "wake lock acquired", "references", m.total)
	return nil
}
