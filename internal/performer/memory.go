package performer

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMemoryRepository creates an in-memory performer repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{profiles: make(map[string]*Profile)}
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepository) ListAvailable(ctx context.Context) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Profile
	for _, p := range r.profiles {
		if p.Available {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryRepository) Upsert(ctx context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}
