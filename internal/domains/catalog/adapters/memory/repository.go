package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps products in memory, ordered by row.
type Repository struct {
	mu      sync.RWMutex
	items   map[int64]domain.Product
	nextRow int64
}

func NewRepository(seed ...domain.Product) *Repository {
	r := &Repository{items: map[int64]domain.Product{}, nextRow: 1}
	for _, p := range seed {
		_, _ = r.Insert(context.Background(), p)
	}
	return r
}

func (r *Repository) List(context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowID < out[j].RowID })
	return out, nil
}

func (r *Repository) Get(_ context.Context, rowID int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[rowID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := clone(p)
	return &copy, nil
}

func (r *Repository) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product.RowID = r.nextRow
	r.nextRow++
	r.items[product.RowID] = clone(product)
	return clone(product), nil
}

func (r *Repository) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[product.RowID]; !ok {
		return ports.ErrNotFound
	}
	r.items[product.RowID] = clone(product)
	return nil
}

func clone(p domain.Product) domain.Product {
	if p.LastSyncedAt != nil {
		ts := *p.LastSyncedAt
		p.LastSyncedAt = &ts
	}
	return p
}
