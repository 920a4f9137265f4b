// Package store holds the single current model produced by the pipeline.
package store

import (
	"sync"

	"github.com/mapfoundry/cityprint/model"
)

// ModelStore is a thread-safe holder for the current built model. Each
// region build replaces the model wholesale; old layers are fully discarded,
// never merged. At most one pipeline run is expected in flight, but reads
// from a renderer collaborator may happen concurrently.
type ModelStore struct {
	mu      sync.RWMutex
	current *model.Model

	subs []func(*model.Model)
}

// New constructs an empty store.
func New() *ModelStore {
	return &ModelStore{}
}

// Replace swaps in a freshly built model and notifies subscribers.
// Subscribers run on the caller's goroutine, outside the lock.
func (s *ModelStore) Replace(m *model.Model) {
	s.mu.Lock()
	s.current = m
	subs := make([]func(*model.Model), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(m)
	}
}

// Current returns the current model, or nil when no build has completed yet.
func (s *ModelStore) Current() *model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers a callback invoked on every model replacement. The
// renderer collaborator uses this to pick up new layers.
func (s *ModelStore) Subscribe(fn func(*model.Model)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
