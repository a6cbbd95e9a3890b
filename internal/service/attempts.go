package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// attemptCounter tracks failed verifications per code in memory.
// Entries are dropped once the code expires.
type attemptCounter struct {
	mu      sync.Mutex
	entries map[uuid.UUID]attemptEntry
}

type attemptEntry struct {
	failures  int
	expiresAt time.Time
}

func newAttemptCounter() *attemptCounter {
	return &attemptCounter{entries: make(map[uuid.UUID]attemptEntry)}
}

// fail records a failed guess and returns the failure count for id.
func (a *attemptCounter) fail(id uuid.UUID, expiresAt, now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, e := range a.entries {
		if !e.expiresAt.After(now) {
			delete(a.entries, key)
		}
	}

	e := a.entries[id]
	e.failures++
	e.expiresAt = expiresAt
	a.entries[id] = e
	return e.failures
}

func (a *attemptCounter) forget(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, id)
}

func (a *attemptCounter) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
