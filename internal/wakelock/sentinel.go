package wakelock

import (
	"context"
	"sync"
)

// StateSentinel is a headless Sentinel that only records its state. The server
// exposes it so a client can mirror the lock.
type StateSentinel struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

// Acquire implements Sentinel.
func (s *StateSentinel) Acquire(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = true
	s.acquires++
	return nil
}

// Release implements Sentinel.
func (s *StateSentinel) Release(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = false
	s.releases++
	return nil
}

// Held reports whether the sentinel is held.
func (s *StateSentinel) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// Counts returns the number of acquire and release calls.
func (s *StateSentinel) Counts() (acquires, releases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquires, s.releases
}
