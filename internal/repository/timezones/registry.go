// Package timezones implements the in-memory timezone registry.
package timezones

import (
	"sync"

	"github.com/oshokin/sleep-clock/internal/collection"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
)

// Registry stores named UTC offsets in insertion order.
type Registry struct {
	mu   sync.RWMutex
	ring *collection.Ring[timezone.Timezone]
}

// New creates a registry seeded with timezone.Defaults.
func New() *Registry {
	r := &Registry{
		ring: collection.New[timezone.Timezone](),
	}

	for _, zone := range timezone.Defaults() {
		r.ring.InsertBack(zone)
	}

	return r
}

// Add appends a zone. Duplicate names are kept side by side.
func (r *Registry) Add(name string, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring.InsertBack(timezone.Timezone{Name: name, Offset: offset})
}

// Remove deletes the first zone with the given name and reports whether one was found.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ring.RemoveWhere(func(z timezone.Timezone) bool {
		return z.Name == name
	})
}

// List returns the zones in insertion order.
func (r *Registry) List() []timezone.Timezone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ring.ToSlice()
}
