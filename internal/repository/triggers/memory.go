package triggers

import (
	"context"
	"sync"

	"github.com/oshokin/sleep-clock/internal/config"
)

// MemoryRepository keeps the most recent records in memory.
type MemoryRepository struct {
	mu       sync.Mutex
	capacity int
	records  []Record
}

// NewMemoryRepository creates a repository retaining at most capacity records.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = config.DefaultJournalCapacity
	}

	return &MemoryRepository{
		capacity: capacity,
		records:  make([]Record, 0, capacity),
	}
}

// Append stores record, evicting the oldest one when full.
func (r *MemoryRepository) Append(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == r.capacity {
		copy(r.records, r.records[1:])
		r.records = r.records[:len(r.records)-1]
	}

	r.records = append(r.records, record)

	return nil
}

// List returns the most recent records, oldest first.
func (r *MemoryRepository) List(_ context.Context, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return tail(r.records, limit), nil
}

// Close does nothing.
func (r *MemoryRepository) Close() error {
	return nil
}
