package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository is the local order store. The engine only writes sync fields.
type Repository interface {
	// List returns orders in storage order.
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, rowID int64) (*domain.Order, error)
	SaveSync(ctx context.Context, rowID int64, sync domain.Sync) error
}

// Accounting is the remote accounting service seen from the orders context.
type Accounting interface {
	// FindClientByEmail returns 0 when no client has exactly that email.
	FindClientByEmail(ctx context.Context, email string) (int64, error)
	CreateClient(ctx context.Context, customer domain.Customer) (int64, error)
	CreateDocument(ctx context.Context, doc domain.Document) (int64, error)
}

// PriceBook resolves unit prices by exact product name.
type PriceBook interface {
	PriceOf(ctx context.Context, name string) (float64, bool, error)
}

// BatchResult summarises a pending-orders run.
type BatchResult struct {
	Processed int     `json:"processed"`
	Imported  int     `json:"imported"`
	Failed    int     `json:"failed"`
	Rows      []int64 `json:"rows,omitempty"`
}

// Add folds one processed order into the result.
func (r *BatchResult) Add(order domain.Order) {
	r.Processed++
	r.Rows = append(r.Rows, order.RowID)
	switch order.Sync.Status {
	case domain.StatusImported:
		r.Imported++
	case domain.StatusError:
		r.Failed++
	}
}

// Service is the order sync use-case port.
type Service interface {
	// ProcessOrder runs one order through the state machine. Per-order failures
	// are recorded on the order and not returned; the error reports store failures.
	ProcessOrder(ctx context.Context, rowID int64) (domain.Order, error)
	ProcessPending(ctx context.Context) (BatchResult, error)
	// HandleNewRow processes the row only if its status is unset.
	HandleNewRow(ctx context.Context, rowID int64) (bool, error)
	PendingRows(ctx context.Context) ([]int64, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// ErrIdempotencyConflict indicates the key was already used for a different document.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// ErrIncompleteRecord rejects a record saved without a key, fingerprint or document.
var ErrIncompleteRecord = errors.New("idempotency record needs key, hash and document id")

// IdempotencyRecord ties an order to the document created for it.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	DocumentID  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the record names an order key, a fingerprint and an issued document.
func (r IdempotencyRecord) Validate() error {
	if r.Key == "" || r.RequestHash == "" || r.DocumentID == 0 {
		return ErrIncompleteRecord
	}
	return nil
}

// Matches reports whether other replays the same sale into the same document.
func (r IdempotencyRecord) Matches(other IdempotencyRecord) bool {
	return r.RequestHash == other.RequestHash && r.DocumentID == other.DocumentID
}

// IdempotencyStore persists document creations so retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record; if the key already exists with the same hash and document, the stored record is returned.
	// When the key exists but points to a different request/document, ErrIdempotencyConflict is returned with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}

// Workflows runs order sync either inline or on a durable engine.
type Workflows interface {
	SyncPending(ctx context.Context) (BatchResult, error)
	SyncOrder(ctx context.Context, rowID int64) (domain.Order, error)
	NotifyNewRow(ctx context.Context, rowID int64) (bool, error)
}
