// Package remote lets the bundler treat absolute http(s) URLs as modules.
//
// A Plugin claims URL specifiers at resolve time, records them in a Registry under a
// short synthetic id, and fetches their bodies when the engine asks to load that id.
package remote

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAmbiguousID is returned when two different URLs produce the same synthetic id.
var ErrAmbiguousID = errors.New("ambiguous synthetic module id")

// Record describes one externally addressed module.
type Record struct {
	URL    string
	Secure bool
}

// Registry maps synthetic ids to the records they stand for.
// One registry belongs to one compile; it is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Register stores rec under id. Registering the same URL twice is a no-op;
// registering a different URL under a taken id fails with ErrAmbiguousID.
func (r *Registry) Register(id string, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[id]; ok && existing.URL != rec.URL {
		return fmt.Errorf("%w: %q is claimed by both %s and %s", ErrAmbiguousID, id, existing.URL, rec.URL)
	}
	r.records[id] = rec
	return nil
}

// Lookup returns the record registered under id.
func (r *Registry) Lookup(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
