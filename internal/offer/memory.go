package offer

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryRepository mirrors the Mongo repository's CAS contract in
// memory. Used by tests and by single-node dev mode.
type memoryRepository struct {
	mu     sync.Mutex
	offers map[string]*Offer
	order  []string
}

// NewMemoryRepository creates an in-memory offer repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{offers: make(map[string]*Offer)}
}

func (r *memoryRepository) Create(ctx context.Context, o *Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	r.offers[o.ID] = &cp
	r.order = append(r.order, o.ID)
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memoryRepository) Resolve(ctx context.Context, id string, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offers[id]
	if !ok {
		return ErrNotFound
	}
	if o.State != StatePending {
		return ErrStaleTransition
	}
	now := time.Now().UTC()
	o.State = to
	o.ResolvedAt = &now
	return nil
}

func (r *memoryRepository) ListByTask(ctx context.Context, taskID string) ([]Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Offer
	for _, id := range r.order {
		if o := r.offers[id]; o.TaskID == taskID {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OfferedAt.Before(out[j].OfferedAt)
	})
	return out, nil
}
