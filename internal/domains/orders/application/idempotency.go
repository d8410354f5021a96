package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
)

const dateLayout = "2006-01-02"

type normalizedDocument struct {
	Type    string           `json:"type"`
	Date    string           `json:"date"`
	Number  int64            `json:"number"`
	Subject string           `json:"subject"`
	Items   []normalizedItem `json:"items"`
	Amount  float64          `json:"amount"`
	Paid    bool             `json:"paid"`
}

type normalizedItem struct {
	Name     string  `json:"name"`
	Qty      int     `json:"qty"`
	NetPrice float64 `json:"netPrice"`
	VATRate  float64 `json:"vatRate"`
}

// IdempotencyKey is the key a document creation is recorded under. "#1001"
// and "1001" share a key since both become document number 1001.
func IdempotencyKey(orderNumber string) string {
	return "order:" + strings.TrimPrefix(strings.TrimSpace(orderNumber), "#")
}

// FingerprintDocument hashes the parts of a document that identify the sale.
// The due date and client id are excluded so a retry on a later day, or
// after the client was re-resolved, still matches.
func FingerprintDocument(doc domain.Document) (string, error) {
	normalized := normalizedDocument{
		Type:    doc.Type,
		Date:    doc.Date.Format(dateLayout),
		Number:  doc.Number,
		Subject: doc.Subject,
		Items:   make([]normalizedItem, 0, len(doc.Items)),
		Amount:  doc.Payment.Amount,
		Paid:    doc.Payment.PaidDate != nil,
	}
	for _, item := range doc.Items {
		normalized.Items = append(normalized.Items, normalizedItem{
			Name: item.Name, Qty: item.Qty, NetPrice: item.NetPrice, VATRate: item.VATRate,
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
