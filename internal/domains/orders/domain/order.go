package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Status is the sync state of an order record.
type Status string

const (
	StatusEmpty    Status = ""
	StatusPending  Status = "PENDING"
	StatusImported Status = "IMPORTED"
	StatusError    Status = "ERROR"
)

// MaxErrorLength bounds the error text stored on a record, in characters.
const MaxErrorLength = 200

var (
	ErrMissingNumber = errors.New("order number is required")
	ErrMissingDate   = errors.New("order date is missing or unreadable")
	ErrNoLineItems   = errors.New("order has no readable line items")
	ErrDroppedLine   = errors.New("line item not in \"<name> x<qty>\" form")
	ErrUnpricedItem  = errors.New("line item has no catalog price")
	ErrBadTotal      = errors.New("order total is unreadable")
)

// Customer is the contact and address block of an order.
type Customer struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
	State      string
}

// Sync holds the fields the engine owns on an order record.
type Sync struct {
	Status           Status
	RemoteDocumentID int64
	RemoteClientID   int64
	Error            string
	SyncedAt         *time.Time
	Warnings         []string
}

// Order is a storefront order as exported to the local store.
type Order struct {
	RowID          int64
	Number         string
	Date           time.Time
	ShippingMethod string
	TransactionID  string
	ProductsText   string
	Total          float64
	// UnreadableTotal holds an exported total that ParseAmount rejected.
	UnreadableTotal string
	Customer        Customer
	Sync            Sync
}

// Eligible reports whether a batch run should (re)process the order.
func (o Order) Eligible() bool {
	switch o.Sync.Status {
	case StatusEmpty, StatusPending, StatusError:
		return true
	default:
		return false
	}
}

// Paid reports whether the storefront recorded a payment transaction.
func (o Order) Paid() bool {
	return strings.TrimSpace(o.TransactionID) != ""
}

// Validate checks the fields needed to build a document.
func (o Order) Validate() error {
	if strings.TrimSpace(o.Number) == "" {
		return ErrMissingNumber
	}
	if o.Date.IsZero() {
		return ErrMissingDate
	}
	if o.UnreadableTotal != "" {
		return fmt.Errorf("%w: %q", ErrBadTotal, o.UnreadableTotal)
	}
	return nil
}

// ParseAmount reads a storefront money value such as "49,90", "1.234,50",
// "1,234.50" or "€ 49.90". When both separators appear the last one is the
// decimal mark; a single lone separator is always decimal. Blank is zero.
func ParseAmount(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) || r == '\'' {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.ToUpper(b.String()), "EUR"), "EUR"))
	if s == "" {
		return 0, nil
	}

	dot, comma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		thousands, decimal := ",", "."
		if comma > dot {
			thousands, decimal = ".", ","
		}
		s = strings.ReplaceAll(s, thousands, "")
		if strings.Count(s, decimal) != 1 {
			return 0, fmt.Errorf("%w: %q", ErrBadTotal, raw)
		}
		s = strings.Replace(s, decimal, ".", 1)
	case comma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case dot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && !(i == 0 && (r == '-' || r == '+')) {
			return 0, fmt.Errorf("%w: %q", ErrBadTotal, raw)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTotal, raw)
	}
	return f, nil
}

// normalizeSingleSeparator treats one occurrence of sep as the decimal mark
// and repeated occurrences as thousands grouping.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// MarkPending starts a processing attempt. Warnings of earlier attempts are dropped.
func (s *Sync) MarkPending() {
	s.Status = StatusPending
	s.Warnings = nil
}

// MarkImported records a created document and clears any earlier error.
func (s *Sync) MarkImported(documentID int64, now time.Time) {
	s.Status = StatusImported
	s.RemoteDocumentID = documentID
	s.Error = ""
	s.SyncedAt = &now
}

// MarkFailed records a failed attempt; the client id, when known, is kept.
func (s *Sync) MarkFailed(message string) {
	s.Status = StatusError
	s.Error = Truncate(message, MaxErrorLength)
}

// Warn appends a non-fatal note about the attempt.
func (s *Sync) Warn(message string) {
	s.Warnings = append(s.Warnings, message)
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
