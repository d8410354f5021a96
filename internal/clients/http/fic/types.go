package fic

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Product is the remote product representation.
type Product struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Code        string  `json:"code,omitempty"`
	NetPrice    float64 `json:"net_price,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Stock       float64 `json:"stock,omitempty"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Data        []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page,omitempty"`
	Total       int       `json:"total,omitempty"`
}

// HasMore reports whether another page follows.
func (p ProductPage) HasMore() bool {
	return p.CurrentPage < p.LastPage
}

// Customer is a client entity as returned by the service.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Country string `json:"country,omitempty"`
}

// NewClient is the payload for creating a customer. Email is validated on encode.
type NewClient struct {
	Name              string              `json:"name,omitempty"`
	Email             openapi_types.Email `json:"email,omitempty"`
	Phone             string              `json:"phone,omitempty"`
	AddressStreet     string              `json:"address_street,omitempty"`
	AddressCity       string              `json:"address_city,omitempty"`
	AddressPostalCode string              `json:"address_postal_code,omitempty"`
	AddressProvince   string              `json:"address_province,omitempty"`
	Country           string              `json:"country,omitempty"`
	Type              string              `json:"type,omitempty"`
}

// ClientTypeCompany is the entity type used for customers created by the sync.
const ClientTypeCompany = "company"

// IssuedDocument is what the service returns for a created document.
type IssuedDocument struct {
	ID int64 `json:"id"`
}

// Document is the issued-document payload.
type Document struct {
	Type         string             `json:"type"`
	Entity       EntityRef          `json:"entity"`
	Date         openapi_types.Date `json:"date"`
	Number       int64              `json:"number,omitempty"`
	Numeration   string             `json:"numeration"`
	Subject      string             `json:"subject"`
	Items        []DocumentItem     `json:"items"`
	PaymentsList []Payment          `json:"payments_list"`
}

// EntityRef points a document at a client.
type EntityRef struct {
	ID int64 `json:"id"`
}

// DocumentItem is one line of an issued document.
type DocumentItem struct {
	Name     string  `json:"name"`
	Qty      int     `json:"qty"`
	NetPrice float64 `json:"net_price"`
	VAT      VAT     `json:"vat"`
}

// VAT carries the rate applied to an item.
type VAT struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// Payment is one installment of a document.
type Payment struct {
	Amount         float64             `json:"amount"`
	DueDate        openapi_types.Date  `json:"due_date"`
	PaymentTerms   PaymentTerms        `json:"payment_terms"`
	PaidDate       *openapi_types.Date `json:"paid_date"`
	Status         string              `json:"status"`
	PaymentAccount PaymentAccount      `json:"payment_account"`
}

// PaymentTerms describes when a payment is due.
type PaymentTerms struct {
	Days int    `json:"days"`
	Type string `json:"type"`
}

// PaymentAccount identifies the payment method.
type PaymentAccount struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payment statuses.
const (
	PaymentPaid    = "paid"
	PaymentNotPaid = "not_paid"
)

type envelope[T any] struct {
	Data T `json:"data"`
}
