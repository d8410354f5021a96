package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps orders in memory, ordered by row.
type Repository struct {
	mu      sync.RWMutex
	items   map[int64]domain.Order
	nextRow int64
}

func NewRepository(seed ...domain.Order) *Repository {
	r := &Repository{items: map[int64]domain.Order{}, nextRow: 1}
	for _, o := range seed {
		r.Add(o)
	}
	return r
}

// Add appends an order as the storefront export would and returns its row.
func (r *Repository) Add(order domain.Order) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.RowID = r.nextRow
	r.nextRow++
	r.items[order.RowID] = clone(order)
	return order.RowID
}

// Edit applies fn to a stored order, standing in for an operator editing the record.
func (r *Repository) Edit(rowID int64, fn func(*domain.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.items[rowID]
	if !ok {
		return ports.ErrNotFound
	}
	fn(&order)
	r.items[rowID] = clone(order)
	return nil
}

func (r *Repository) List(context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Order, 0, len(r.items))
	for _, o := range r.items {
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowID < out[j].RowID })
	return out, nil
}

func (r *Repository) Get(_ context.Context, rowID int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.items[rowID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := clone(o)
	return &copy, nil
}

func (r *Repository) SaveSync(_ context.Context, rowID int64, sync domain.Sync) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[rowID]
	if !ok {
		return ports.ErrNotFound
	}
	o.Sync = sync
	r.items[rowID] = clone(o)
	return nil
}

func clone(o domain.Order) domain.Order {
	if o.Sync.SyncedAt != nil {
		ts := *o.Sync.SyncedAt
		o.Sync.SyncedAt = &ts
	}
	if o.Sync.Warnings != nil {
		o.Sync.Warnings = append([]string(nil), o.Sync.Warnings...)
	}
	return o
}
