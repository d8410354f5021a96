// Package sheet stores orders as rows of the order sheet. The storefront
// export owns the order columns; only the sync columns are ever written.
package sheet

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

// Columns maps order fields to 1-based sheet columns. Warnings is optional;
// zero leaves warnings out of the sheet.
type Columns struct {
	Number         int `yaml:"order_no"`
	Date           int `yaml:"date"`
	ShippingMethod int `yaml:"shipping_method"`
	TransactionID  int `yaml:"transaction_id"`
	Products       int `yaml:"products"`
	Total          int `yaml:"order_total"`
	CustomerName   int `yaml:"customer_name"`
	Email          int `yaml:"email"`
	Phone          int `yaml:"phone"`
	Address        int `yaml:"address"`
	City           int `yaml:"city"`
	PostalCode     int `yaml:"postal_code"`
	Country        int `yaml:"country"`
	State          int `yaml:"state"`
	Status         int `yaml:"fic_status"`
	DocumentID     int `yaml:"fic_doc_id"`
	ClientID       int `yaml:"fic_client_id"`
	Error          int `yaml:"fic_error"`
	SyncDate       int `yaml:"sync_date"`
	Warnings       int `yaml:"warnings"`
}

// DefaultColumns is the stock order sheet layout.
func DefaultColumns() Columns {
	return Columns{
		Number: 1, Date: 2, ShippingMethod: 3, TransactionID: 4, Products: 5, Total: 6,
		CustomerName: 7, Email: 8, Phone: 9, Address: 10, City: 11, PostalCode: 12,
		Country: 13, State: 14, Status: 15, DocumentID: 16, ClientID: 17, Error: 18, SyncDate: 19,
	}
}

// Header returns column titles laid out according to c.
func (c Columns) Header() []string {
	titles := map[int]string{
		c.Number: "Numero ordine", c.Date: "Data", c.ShippingMethod: "Spedizione", c.TransactionID: "ID transazione",
		c.Products: "Prodotti", c.Total: "Totale", c.CustomerName: "Cliente", c.Email: "Email", c.Phone: "Telefono",
		c.Address: "Indirizzo", c.City: "Citta", c.PostalCode: "CAP", c.Country: "Paese", c.State: "Provincia",
		c.Status: "Stato FIC", c.DocumentID: "FIC Doc ID", c.ClientID: "FIC Cliente ID", c.Error: "Errore FIC",
		c.SyncDate: "Data sincronizzazione", c.Warnings: "Avvisi",
	}
	delete(titles, 0)
	width := 0
	for col := range titles {
		if col > width {
			width = col
		}
	}
	header := make([]string, width)
	for col, title := range titles {
		header[col-1] = title
	}
	return header
}

// dateLayouts are tried in order when reading the order date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"02/01/2006 15:04",
	"2/1/2006",
}

var _ ports.Repository = (*Repository)(nil)

// Repository reads orders from and writes sync fields to a sheet.
type Repository struct {
	sheet *sheet.Sheet
	cols  Columns
}

func NewRepository(s *sheet.Sheet, cols Columns) *Repository {
	return &Repository{sheet: s, cols: cols}
}

// List skips rows that carry neither an order number nor products.
func (r *Repository) List(context.Context) ([]domain.Order, error) {
	rows, err := r.sheet.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for i, row := range rows {
		o := r.decode(int64(i+1), row)
		if strings.TrimSpace(o.Number) == "" && strings.TrimSpace(o.ProductsText) == "" {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Repository) Get(_ context.Context, rowID int64) (*domain.Order, error) {
	row, err := r.sheet.Row(int(rowID))
	if errors.Is(err, sheet.ErrRowOutOfRange) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o := r.decode(rowID, row)
	return &o, nil
}

func (r *Repository) SaveSync(_ context.Context, rowID int64, sync domain.Sync) error {
	values := map[int]string{
		r.cols.Status:     string(sync.Status),
		r.cols.DocumentID: formatID(sync.RemoteDocumentID),
		r.cols.ClientID:   formatID(sync.RemoteClientID),
		r.cols.Error:      sync.Error,
		r.cols.SyncDate:   "",
	}
	if sync.SyncedAt != nil {
		values[r.cols.SyncDate] = sync.SyncedAt.UTC().Format(time.RFC3339)
	}
	if r.cols.Warnings > 0 {
		values[r.cols.Warnings] = strings.Join(sync.Warnings, "; ")
	}
	delete(values, 0)
	err := r.sheet.Update(int(rowID), values)
	if errors.Is(err, sheet.ErrRowOutOfRange) {
		return ports.ErrNotFound
	}
	return err
}

func (r *Repository) decode(rowID int64, row []string) domain.Order {
	cell := func(col int) string { return strings.TrimSpace(sheet.Cell(row, col)) }
	o := domain.Order{
		RowID:          rowID,
		Number:         cell(r.cols.Number),
		Date:           parseDate(cell(r.cols.Date)),
		ShippingMethod: cell(r.cols.ShippingMethod),
		TransactionID:  cell(r.cols.TransactionID),
		ProductsText:   cell(r.cols.Products),
		Customer: domain.Customer{
			Name:       cell(r.cols.CustomerName),
			Email:      cell(r.cols.Email),
			Phone:      cell(r.cols.Phone),
			Address:    cell(r.cols.Address),
			City:       cell(r.cols.City),
			PostalCode: cell(r.cols.PostalCode),
			Country:    cell(r.cols.Country),
			State:      cell(r.cols.State),
		},
		Sync: domain.Sync{
			Status:           domain.Status(cell(r.cols.Status)),
			RemoteDocumentID: parseID(cell(r.cols.DocumentID)),
			RemoteClientID:   parseID(cell(r.cols.ClientID)),
			Error:            cell(r.cols.Error),
		},
	}
	if total, err := domain.ParseAmount(cell(r.cols.Total)); err == nil {
		o.Total = total
	} else {
		o.UnreadableTotal = cell(r.cols.Total)
	}
	if ts, err := time.Parse(time.RFC3339, cell(r.cols.SyncDate)); err == nil {
		o.Sync.SyncedAt = &ts
	}
	if r.cols.Warnings > 0 {
		if raw := cell(r.cols.Warnings); raw != "" {
			o.Sync.Warnings = strings.Split(raw, "; ")
		}
	}
	return o
}

func parseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseID(raw string) int64 {
	n, _ := strconv.ParseInt(raw, 10, 64)
	return n
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
