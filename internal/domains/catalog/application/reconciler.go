package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
)

const (
	DefaultPageSize = 50
	DefaultMaxPages = 20
)

// Reconciler makes the local catalog match the remote one. Remote wins and
// local-only records are never removed.
type Reconciler struct {
	repo            ports.Repository
	remote          ports.RemoteCatalog
	pageSize        int
	maxPages        int
	defaultCategory string
	now             func() time.Time
	logger          *slog.Logger
}

type Option func(*Reconciler)

// WithPaging bounds the remote listing.
func WithPaging(pageSize, maxPages int) Option {
	return func(r *Reconciler) {
		if pageSize > 0 {
			r.pageSize = pageSize
		}
		if maxPages > 0 {
			r.maxPages = maxPages
		}
	}
}

// WithDefaultCategory sets the category used for imported products without one.
func WithDefaultCategory(category string) Option {
	return func(r *Reconciler) {
		if category != "" {
			r.defaultCategory = category
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReconciler wires the reconciler with its dependencies.
func NewReconciler(repo ports.Repository, remote ports.RemoteCatalog, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:            repo,
		remote:          remote,
		pageSize:        DefaultPageSize,
		maxPages:        DefaultMaxPages,
		defaultCategory: domain.DefaultCategory,
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var _ ports.Service = (*Reconciler)(nil)

// Reconcile pulls the whole remote catalog and upserts local records by
// remote id. A remote failure aborts the pass; rows already written stay.
func (r *Reconciler) Reconcile(ctx context.Context) (ports.ReconcileResult, error) {
	var result ports.ReconcileResult
	remote, err := r.fetchAll(ctx, &result)
	if err != nil {
		return result, err
	}

	local, err := r.repo.List(ctx)
	if err != nil {
		return result, err
	}
	index := make(map[int64]domain.Product, len(local))
	for _, p := range local {
		if !p.HasRemote() {
			continue
		}
		if _, dup := index[p.RemoteID]; dup {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "duplicate remote id in local catalog",
				slog.Int64("remote_id", p.RemoteID), slog.Int64("row", p.RowID))
			continue
		}
		index[p.RemoteID] = p
	}

	now := r.now()
	for _, item := range remote {
		existing, ok := index[item.ID]
		if !ok {
			inserted, err := r.repo.Insert(ctx, domain.FromRemote(item, r.defaultCategory, now))
			if err != nil {
				return result, err
			}
			index[item.ID] = inserted
			result.Inserted++
			continue
		}
		if !existing.ApplyRemote(item, now) {
			result.Unchanged++
			continue
		}
		if err := r.repo.Update(ctx, existing); err != nil {
			return result, err
		}
		index[item.ID] = existing
		result.Updated++
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "products synchronised",
		slog.Int("fetched", result.Fetched),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("unchanged", result.Unchanged),
	)
	return result, nil
}

func (r *Reconciler) fetchAll(ctx context.Context, result *ports.ReconcileResult) ([]domain.Remote, error) {
	var all []domain.Remote
	for page := 1; page <= r.maxPages; page++ {
		current, err := r.remote.ListPage(ctx, page, r.pageSize)
		if err != nil {
			return nil, err
		}
		result.Pages = page
		all = append(all, current.Items...)
		if !current.HasMore {
			break
		}
		if page == r.maxPages {
			result.Truncated = true
			r.logger.LogAttrs(ctx, slog.LevelWarn, "remote catalog truncated at page cap", slog.Int("max_pages", r.maxPages))
		}
	}
	result.Fetched = len(all)
	return all, nil
}

// Publish pushes one local product upstream and stores the remote identity.
func (r *Reconciler) Publish(ctx context.Context, rowID int64) (domain.Product, error) {
	product, err := r.repo.Get(ctx, rowID)
	if err != nil {
		return domain.Product{}, mapError("publish product", err)
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, mapError("publish product", err)
	}
	saved, err := r.remote.Upsert(ctx, product.ToRemote())
	if err != nil {
		return domain.Product{}, err
	}
	if saved.ID != 0 {
		product.RemoteID = saved.ID
	}
	if saved.Code != "" {
		product.RemoteCode = saved.Code
	}
	now := r.now()
	product.LastSyncedAt = &now
	if err := r.repo.Update(ctx, *product); err != nil {
		return domain.Product{}, err
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "product published",
		slog.Int64("row", rowID), slog.Int64("remote_id", product.RemoteID))
	return *product, nil
}

// PriceOf returns the price of the product whose name matches exactly.
func (r *Reconciler) PriceOf(ctx context.Context, name string) (float64, bool, error) {
	products, err := r.repo.List(ctx)
	if err != nil {
		return 0, false, err
	}
	key := domain.NormalizeName(name)
	for _, p := range products {
		if domain.NormalizeName(p.Name) == key {
			return p.Price, true, nil
		}
	}
	return 0, false, nil
}

// List returns the local catalog.
func (r *Reconciler) List(ctx context.Context) ([]domain.Product, error) {
	return r.repo.List(ctx)
}
