// Package task runs background work such as AI quiz generation.
//
// Submitted tasks are persisted before they are queued, so a restart can
// rebuild pending and interrupted work from the store through a Rehydrator.
// A TaskRunner owns a bounded TaskQueue and a WorkerPool; a stuck-task
// monitor resets work that stays in processing for too long.
package task
