package history

import (
	"context"
	"sync"
)

// memoryRepository holds completed tasks per performer. Used by tests
// and by single-node dev mode.
type memoryRepository struct {
	mu        sync.RWMutex
	completed map[string][][]string // performer id -> per-task category sets
	failing   map[string]bool
}

// NewMemoryRepository creates an in-memory history repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		inner: &memoryRepository{
			completed: make(map[string][][]string),
			failing:   make(map[string]bool),
		},
	}
}

// MemoryRepository is the in-memory Repository with test hooks for
// recording completions and simulating lookup failures.
type MemoryRepository struct {
	inner *memoryRepository
}

// RecordCompletion appends one completed task's categories for a performer.
func (r *MemoryRepository) RecordCompletion(performerID string, categories []string) {
	r.inner.mu.Lock()
	defer r.inner.mu.Unlock()
	r.inner.completed[performerID] = append(r.inner.completed[performerID], categories)
}

// SetUnavailable makes lookups for the performer fail with ErrDataUnavailable.
func (r *MemoryRepository) SetUnavailable(performerID string, unavailable bool) {
	r.inner.mu.Lock()
	defer r.inner.mu.Unlock()
	r.inner.failing[performerID] = unavailable
}

func (r *MemoryRepository) CompletedCategories(ctx context.Context, performerID string) ([]string, int, error) {
	r.inner.mu.RLock()
	defer r.inner.mu.RUnlock()

	if r.inner.failing[performerID] {
		return nil, 0, ErrDataUnavailable
	}

	var tags []string
	taskSets := r.inner.completed[performerID]
	for _, set := range taskSets {
		tags = append(tags, dedup(set)...)
	}
	return tags, len(taskSets), nil
}
