// Package remote binds the catalog to the accounting API client.
package remote

import (
	"context"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
)

// API is the subset of the accounting client used by the catalog.
type API interface {
	GetProducts(ctx context.Context, page, perPage int) (fic.ProductPage, error)
	UpsertProduct(ctx context.Context, product fic.Product) (fic.Product, error)
}

var _ ports.RemoteCatalog = (*Catalog)(nil)

// Catalog adapts the accounting client to the catalog port.
type Catalog struct {
	api API
}

func NewCatalog(api API) *Catalog {
	return &Catalog{api: api}
}

func (c *Catalog) ListPage(ctx context.Context, page, perPage int) (ports.RemotePage, error) {
	resp, err := c.api.GetProducts(ctx, page, perPage)
	if err != nil {
		return ports.RemotePage{}, err
	}
	items := make([]domain.Remote, 0, len(resp.Data))
	for _, p := range resp.Data {
		items = append(items, fromWire(p))
	}
	return ports.RemotePage{Items: items, HasMore: resp.HasMore()}, nil
}

func (c *Catalog) Upsert(ctx context.Context, product domain.Remote) (domain.Remote, error) {
	saved, err := c.api.UpsertProduct(ctx, toWire(product))
	if err != nil {
		return domain.Remote{}, err
	}
	return fromWire(saved), nil
}

func fromWire(p fic.Product) domain.Remote {
	return domain.Remote{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		NetPrice:    p.NetPrice,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Stock:       p.Stock,
	}
}

func toWire(r domain.Remote) fic.Product {
	return fic.Product{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		NetPrice:    r.NetPrice,
		Description: r.Description,
		Category:    r.Category,
		Brand:       r.Brand,
		Stock:       r.Stock,
	}
}
