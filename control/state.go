// control/state.go
// Author: momentics <momentics@gmail.com>
//
// Point-in-time state published by the event loop for external readers.

package control

import (
	"sync"
	"time"
)

// StateRegistry holds the latest values published by the server.
type StateRegistry struct {
	mu      sync.RWMutex
	values  map[string]any
	updated time.Time
}

// NewStateRegistry creates an empty registry.
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{
		values: make(map[string]any),
	}
}

// Set sets or updates a key.
func (sr *StateRegistry) Set(key string, value any) {
	sr.mu.Lock()
	sr.values[key] = value
	sr.updated = time.Now()
	sr.mu.Unlock()
}

// Snapshot returns a copy of the current values.
func (sr *StateRegistry) Snapshot() map[string]any {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	out := make(map[string]any, len(sr.values))
	for k, v := range sr.values {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last Set, zero if none.
func (sr *StateRegistry) Updated() time.Time {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.updated
}
