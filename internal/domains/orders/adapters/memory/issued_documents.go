package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IssuedDocuments)(nil)

// IssuedDocuments remembers which accounting document was issued for each
// order key. The first record for a key is final: saving the same fingerprint
// and document again returns it, anything else is a conflict.
type IssuedDocuments struct {
	mu    sync.Mutex
	byKey map[string]ports.IdempotencyRecord
	now   func() time.Time
}

// IssuedOption configures IssuedDocuments.
type IssuedOption func(*IssuedDocuments)

// WithIssuedClock sets the time stamped on new records.
func WithIssuedClock(now func() time.Time) IssuedOption {
	return func(d *IssuedDocuments) {
		if now != nil {
			d.now = now
		}
	}
}

func NewIssuedDocuments(opts ...IssuedOption) *IssuedDocuments {
	d := &IssuedDocuments{byKey: map[string]ports.IdempotencyRecord{}, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *IssuedDocuments) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.byKey[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (d *IssuedDocuments) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if first, ok := d.byKey[record.Key]; ok {
		if !first.Matches(record) {
			return &first, ports.ErrIdempotencyConflict
		}
		return &first, nil
	}
	record.CreatedAt = d.now().UTC()
	record.UpdatedAt = record.CreatedAt
	d.byKey[record.Key] = record
	return &record, nil
}
