// Package storagemeta implements the optional highest-seen-id observer: an
// instance-local, concurrency-safe cell tracking the maximum ID a backend
// has observed since startup. It is never persisted and never synchronized
// across processes — an opportunistic hint, not a source of truth.
package storagemeta

import (
	"sync"

	"github.com/andreasom/oml-storage-go/storageid"
)

// Tracker holds the maximum ID observed by a single backend instance.
type Tracker[ID storageid.ID] struct {
	mu      sync.RWMutex
	highest *ID
}

// New returns an empty tracker.
func New[ID storageid.ID]() *Tracker[ID] {
	return &Tracker[ID]{}
}

// Observe updates the tracked value to the maximum of (current, id), under
// the variant's Less ordering. Called by every operation that validates an
// existing item: successful Exists, Load, Save, Lock, AllIDs.
func (t *Tracker[ID]) Observe(id ID) {
	t.mu.RLock()
	current := t.highest
	t.mu.RUnlock()

	if current != nil && !(*current).Less(id) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.highest == nil || (*t.highest).Less(id) {
		t.highest = &id
	}
}

// HighestSeenID returns the current tracked value, or nil if none has been
// observed yet.
func (t *Tracker[ID]) HighestSeenID() *ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.highest == nil {
		return nil
	}
	id := *t.highest
	return &id
}
