package products

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Product
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Product)}
}

// GetByID returns a product by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, productID string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[productID]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// List returns all products sorted by ID.
func (r *MemoryRepo) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.data))
	for _, p := range r.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put stores or replaces a product.
func (r *MemoryRepo) Put(ctx context.Context, p Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
