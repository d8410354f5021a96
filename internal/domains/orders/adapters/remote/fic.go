// Package remote binds the order engine to the accounting API client.
package remote

import (
	"context"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

// API is the subset of the accounting client used by the order engine.
type API interface {
	FindClientByEmail(ctx context.Context, email string) (*fic.Customer, error)
	CreateClient(ctx context.Context, client fic.NewClient) (fic.Customer, error)
	CreateDocument(ctx context.Context, doc fic.Document) (fic.IssuedDocument, error)
}

var _ ports.Accounting = (*Accounting)(nil)

// Accounting adapts the accounting client to the orders port.
type Accounting struct {
	api API
}

func NewAccounting(api API) *Accounting {
	return &Accounting{api: api}
}

func (a *Accounting) FindClientByEmail(ctx context.Context, email string) (int64, error) {
	client, err := a.api.FindClientByEmail(ctx, email)
	if err != nil || client == nil {
		return 0, err
	}
	return client.ID, nil
}

func (a *Accounting) CreateClient(ctx context.Context, customer domain.Customer) (int64, error) {
	created, err := a.api.CreateClient(ctx, ToWireClient(customer))
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (a *Accounting) CreateDocument(ctx context.Context, doc domain.Document) (int64, error) {
	issued, err := a.api.CreateDocument(ctx, ToWireDocument(doc))
	if err != nil {
		return 0, err
	}
	return issued.ID, nil
}

// ToWireClient maps an order customer to the client payload.
func ToWireClient(c domain.Customer) fic.NewClient {
	return fic.NewClient{
		Name:              c.Name,
		Email:             openapi_types.Email(strings.TrimSpace(c.Email)),
		Phone:             c.Phone,
		AddressStreet:     c.Address,
		AddressCity:       c.City,
		AddressPostalCode: c.PostalCode,
		AddressProvince:   c.State,
		Country:           c.Country,
		Type:              fic.ClientTypeCompany,
	}
}

// ToWireDocument maps a document to the issued-document payload.
func ToWireDocument(doc domain.Document) fic.Document {
	items := make([]fic.DocumentItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, fic.DocumentItem{
			Name:     item.Name,
			Qty:      item.Qty,
			NetPrice: item.NetPrice,
			VAT:      fic.VAT{ID: 0, Value: item.VATRate},
		})
	}
	status := fic.PaymentNotPaid
	var paid *openapi_types.Date
	if doc.Payment.PaidDate != nil {
		status = fic.PaymentPaid
		paid = &openapi_types.Date{Time: *doc.Payment.PaidDate}
	}
	return fic.Document{
		Type:       doc.Type,
		Entity:     fic.EntityRef{ID: doc.ClientID},
		Date:       openapi_types.Date{Time: doc.Date},
		Number:     doc.Number,
		Numeration: doc.Numeration,
		Subject:    doc.Subject,
		Items:      items,
		PaymentsList: []fic.Payment{{
			Amount:       doc.Payment.Amount,
			DueDate:      openapi_types.Date{Time: doc.Payment.DueDate},
			PaymentTerms: fic.PaymentTerms{Days: doc.Payment.TermDays, Type: doc.Payment.TermType},
			PaidDate:     paid,
			Status:       status,
			PaymentAccount: fic.PaymentAccount{
				ID:   doc.Payment.Account.ID,
				Name: doc.Payment.Account.Name,
			},
		}},
	}
}
