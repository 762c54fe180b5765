package alarms

import (
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/sleep-clock/internal/collection"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

// IDGenerator produces alarm identifiers.
type IDGenerator func() string

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator replaces the default random UUID generator.
func WithIDGenerator(generate IDGenerator) Option {
	return func(r *Registry) {
		if generate != nil {
			r.newID = generate
		}
	}
}

// Registry stores alarms in memory.
type Registry struct {
	// mu guards ring and index.
	mu sync.RWMutex
	// ring keeps the live records in insertion order.
	ring *collection.Ring[*domain.Alarm]
	// index maps alarm ids to their ring handles.
	index map[string]collection.Handle
	// newID generates identifiers for new alarms.
	newID IDGenerator
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		ring:  collection.New[*domain.Alarm](),
		index: make(map[string]collection.Handle),
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Add creates an active alarm with a fresh id and returns a copy of it.
func (r *Registry) Add(name string, at domain.Time, soundFile string, isSleepAlarm bool) *domain.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.index[id]; !taken {
			break
		}

		id = r.newID()
	}

	record := domain.New(id, name, at, soundFile, isSleepAlarm)
	r.index[id] = r.ring.InsertBack(record)

	return record.Clone()
}

// Get returns a copy of the alarm with the given id.
func (r *Registry) Get(id string) (*domain.Alarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.lookup(id)
	if !ok {
		return nil, false
	}

	return record.Clone(), true
}

// Update applies patch to the alarm with the given id and returns the updated copy.
// It reports false when the id is unknown.
func (r *Registry) Update(id string, patch *domain.Patch) (*domain.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.lookup(id)
	if !ok {
		return nil, false
	}

	patch.Apply(record)

	return record.Clone(), true
}

// Remove deletes the alarm with the given id. It reports false when the id is unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle, ok := r.index[id]
	if !ok {
		return false
	}

	delete(r.index, id)

	return r.ring.Remove(handle)
}

// RemoveByTime deletes the first alarm, in insertion order, set exactly to at.
// With several alarms at the same time only the oldest one goes.
func (r *Registry) RemoveByTime(at domain.Time) (*domain.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, handle, ok := r.ring.Find(func(a *domain.Alarm) bool {
		return a.Time == at
	})
	if !ok {
		return nil, false
	}

	r.ring.Remove(handle)
	delete(r.index, record.ID)

	return record, true
}

// List returns copies of all alarms in insertion order.
func (r *Registry) List() []*domain.Alarm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Alarm, 0, r.ring.Len())

	r.ring.Each(func(a *domain.Alarm) bool {
		result = append(result, a.Clone())
		return true
	})

	return result
}

// Len returns the number of alarms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ring.Len()
}

// lookup returns the live record. Callers must hold mu.
func (r *Registry) lookup(id string) (*domain.Alarm, bool) {
	handle, ok := r.index[id]
	if !ok {
		return nil, false
	}

	return r.ring.Get(handle)
}
