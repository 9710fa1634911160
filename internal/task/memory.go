package task

import (
	"context"
	"sync"
	"time"
)

// memoryRepository mirrors the Mongo repository's CAS contract in
// memory. Used by tests and by single-node dev mode.
type memoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemoryRepository creates an in-memory task repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{tasks: make(map[string]*Task)}
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memoryRepository) ListPending(ctx context.Context, kind Kind) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Task
	for _, t := range r.tasks {
		if t.Status != StatusPending {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *memoryRepository) Assign(ctx context.Context, taskID, performerID string) error {
	return r.transition(taskID, StatusAssigned, performerID)
}

func (r *memoryRepository) MarkUnfulfilled(ctx context.Context, taskID string) error {
	return r.transition(taskID, StatusUnfulfilled, "")
}

func (r *memoryRepository) MarkCancelled(ctx context.Context, taskID string) error {
	return r.transition(taskID, StatusCancelled, "")
}

func (r *memoryRepository) transition(taskID string, to Status, performerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	if t.Status != StatusPending {
		return ErrStatusConflict
	}
	t.Status = to
	if performerID != "" {
		t.PerformerID = performerID
	}
	return nil
}

func (r *memoryRepository) Create(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}
