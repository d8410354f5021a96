package syncserver

import (
	"time"

	catalogdomain "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	ordersdomain "github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
)

// Product is the wire form of a local catalog record.
type Product struct {
	RowID           int64      `json:"rowId"`
	RemoteID        int64      `json:"remoteId,omitempty"`
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	Price           float64    `json:"price"`
	DiscountedPrice float64    `json:"discountedPrice,omitempty"`
	Description     string     `json:"description,omitempty"`
	Brand           string     `json:"brand,omitempty"`
	Stock           float64    `json:"stock"`
	Code            string     `json:"code,omitempty"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`
}

// Order is the wire form of an order record and its sync state.
type Order struct {
	RowID      int64      `json:"rowId"`
	Number     string     `json:"number"`
	Date       string     `json:"date,omitempty"`
	Total      float64    `json:"total"`
	Customer   string     `json:"customer,omitempty"`
	Email      string     `json:"email,omitempty"`
	Status     string     `json:"status"`
	DocumentID int64      `json:"documentId,omitempty"`
	ClientID   int64      `json:"clientId,omitempty"`
	Error      string     `json:"error,omitempty"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
}

func fromProduct(p catalogdomain.Product) Product {
	return Product{
		RowID:           p.RowID,
		RemoteID:        p.RemoteID,
		Name:            p.Name,
		Category:        p.Category,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Description:     p.Description,
		Brand:           p.Brand,
		Stock:           p.Stock,
		Code:            p.RemoteCode,
		LastSyncedAt:    p.LastSyncedAt,
	}
}

func fromProducts(products []catalogdomain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, fromProduct(p))
	}
	return out
}

func fromOrder(o ordersdomain.Order) Order {
	out := Order{
		RowID:      o.RowID,
		Number:     o.Number,
		Total:      o.Total,
		Customer:   o.Customer.Name,
		Email:      o.Customer.Email,
		Status:     string(o.Sync.Status),
		DocumentID: o.Sync.RemoteDocumentID,
		ClientID:   o.Sync.RemoteClientID,
		Error:      o.Sync.Error,
		SyncedAt:   o.Sync.SyncedAt,
		Warnings:   o.Sync.Warnings,
	}
	if !o.Date.IsZero() {
		out.Date = o.Date.Format("2006-01-02")
	}
	return out
}

func fromOrders(orders []ordersdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, fromOrder(o))
	}
	return out
}
