package domain

import (
	"strconv"
	"strings"
	"time"
)

// Document is the invoice (or other document type) issued for an order.
type Document struct {
	Type       string
	ClientID   int64
	Date       time.Time
	Number     int64
	Numeration string
	Subject    string
	Items      []DocumentItem
	Payment    Payment
}

// DocumentItem is a priced line.
type DocumentItem struct {
	Name     string
	Qty      int
	NetPrice float64
	VATRate  float64
}

// PaymentAccount is the configured payment method.
type PaymentAccount struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Payment is the single installment of a document.
type Payment struct {
	Amount   float64
	DueDate  time.Time
	TermDays int
	TermType string
	PaidDate *time.Time
	Account  PaymentAccount
}

const (
	DefaultNumeration = "/A"
	PaymentTermDays   = 30
	PaymentTermType   = "standard"
)

// DocumentOptions are the configured document defaults.
type DocumentOptions struct {
	Type    string
	VATRate float64
	Account PaymentAccount
}

// BuildDocument assembles the document for a validated order. The due date
// is the submission day; the 30 day term is carried as metadata only.
func BuildDocument(o Order, clientID int64, items []DocumentItem, opts DocumentOptions, today time.Time) Document {
	payment := Payment{
		Amount:   o.Total,
		DueDate:  today,
		TermDays: PaymentTermDays,
		TermType: PaymentTermType,
		Account:  opts.Account,
	}
	if o.Paid() {
		paid := o.Date
		payment.PaidDate = &paid
	}
	return Document{
		Type:       opts.Type,
		ClientID:   clientID,
		Date:       o.Date,
		Number:     DocumentNumber(o.Number),
		Numeration: DefaultNumeration,
		Subject:    "Ordine " + strings.TrimSpace(o.Number),
		Items:      items,
		Payment:    payment,
	}
}

// DocumentNumber converts a storefront order number ("1001", "#1001") to a
// document number. Zero means the service assigns the next number.
func DocumentNumber(orderNumber string) int64 {
	raw := strings.TrimPrefix(strings.TrimSpace(orderNumber), "#")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
