package domain

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DefaultCategory is assigned to products imported without one.
const DefaultCategory = "Generale"

var ErrEmptyName = errors.New("product name is required")

// Product is a local catalog record. RowID addresses it in the local store;
// RemoteID is zero until the product is known to the accounting service.
type Product struct {
	RowID           int64
	RemoteID        int64
	Name            string
	Category        string
	Price           float64
	DiscountedPrice float64
	Description     string
	Brand           string
	Stock           float64
	RemoteCode      string
	LastSyncedAt    *time.Time
}

// Remote is the accounting service's view of a product.
type Remote struct {
	ID          int64
	Name        string
	Code        string
	NetPrice    float64
	Description string
	Category    string
	Brand       string
	Stock       float64
}

// HasRemote reports whether the product is linked to a remote record.
func (p Product) HasRemote() bool { return p.RemoteID != 0 }

// Validate checks the fields required before publishing.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ApplyRemote overwrites the remotely owned fields and reports whether any
// of them changed. The sync timestamp only moves on change.
func (p *Product) ApplyRemote(r Remote, now time.Time) bool {
	changed := p.Name != r.Name ||
		p.Price != r.NetPrice ||
		p.Description != r.Description ||
		p.Stock != r.Stock ||
		p.RemoteCode != r.Code
	if !changed {
		return false
	}
	p.Name = r.Name
	p.Price = r.NetPrice
	p.Description = r.Description
	p.Stock = r.Stock
	p.RemoteCode = r.Code
	p.LastSyncedAt = &now
	return true
}

// FromRemote builds a new local record from a remote product.
func FromRemote(r Remote, defaultCategory string, now time.Time) Product {
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = defaultCategory
	}
	return Product{
		RemoteID:     r.ID,
		Name:         r.Name,
		Category:     category,
		Price:        r.NetPrice,
		Description:  r.Description,
		Brand:        r.Brand,
		Stock:        r.Stock,
		RemoteCode:   r.Code,
		LastSyncedAt: &now,
	}
}

// ToRemote is the payload used to publish the product.
func (p Product) ToRemote() Remote {
	return Remote{
		ID:          p.RemoteID,
		Name:        p.Name,
		Code:        p.RemoteCode,
		NetPrice:    p.Price,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Stock:       p.Stock,
	}
}

// NormalizeName is the key used for exact-name price lookups: NFC form with
// surrounding space removed, so composed and decomposed accents compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
