package ports

import (
	"context"
	"errors"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository is the local product store.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, rowID int64) (*domain.Product, error)
	// Insert stores a new record and returns it with its RowID assigned.
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
}

// RemotePage is one page of the remote catalog.
type RemotePage struct {
	Items   []domain.Remote
	HasMore bool
}

// RemoteCatalog is the accounting service seen from the catalog.
type RemoteCatalog interface {
	ListPage(ctx context.Context, page, perPage int) (RemotePage, error)
	Upsert(ctx context.Context, product domain.Remote) (domain.Remote, error)
}

// ReconcileResult reports what a reconciliation pass did.
type ReconcileResult struct {
	Fetched   int  `json:"fetched"`
	Inserted  int  `json:"inserted"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Pages     int  `json:"pages"`
	Truncated bool `json:"truncated"`
}

// Service is the catalog use-case port.
type Service interface {
	Reconcile(ctx context.Context) (ReconcileResult, error)
	Publish(ctx context.Context, rowID int64) (domain.Product, error)
	PriceOf(ctx context.Context, name string) (float64, bool, error)
	List(ctx context.Context) ([]domain.Product, error)
}
