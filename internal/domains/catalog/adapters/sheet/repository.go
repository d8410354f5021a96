// Package sheet stores products as rows of the product sheet, addressed
// through a configurable column map.
package sheet

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

// Columns maps product fields to 1-based sheet columns.
type Columns struct {
	Name            int `yaml:"name"`
	Category        int `yaml:"category"`
	Price           int `yaml:"price"`
	DiscountedPrice int `yaml:"discounted_price"`
	Description     int `yaml:"description"`
	Brand           int `yaml:"brand"`
	Stock           int `yaml:"stock"`
	RemoteID        int `yaml:"fic_id"`
	RemoteCode      int `yaml:"fic_code"`
	LastSync        int `yaml:"last_sync"`
}

// DefaultColumns is the stock product sheet layout.
func DefaultColumns() Columns {
	return Columns{
		Name: 1, Category: 2, Price: 3, DiscountedPrice: 4, Description: 5,
		Brand: 6, Stock: 10, RemoteID: 15, RemoteCode: 16, LastSync: 17,
	}
}

// Header returns column titles laid out according to cols.
func (c Columns) Header() []string {
	titles := map[int]string{
		c.Name: "Nome", c.Category: "Categoria", c.Price: "Prezzo", c.DiscountedPrice: "Prezzo scontato",
		c.Description: "Descrizione", c.Brand: "Marca", c.Stock: "Giacenza",
		c.RemoteID: "FIC ID", c.RemoteCode: "FIC Codice", c.LastSync: "Ultima sincronizzazione",
	}
	width := 0
	for col := range titles {
		if col > width {
			width = col
		}
	}
	header := make([]string, width)
	for col, title := range titles {
		if col > 0 {
			header[col-1] = title
		}
	}
	return header
}

var _ ports.Repository = (*Repository)(nil)

// Repository reads and writes products on a sheet.
type Repository struct {
	sheet *sheet.Sheet
	cols  Columns
}

func NewRepository(s *sheet.Sheet, cols Columns) *Repository {
	return &Repository{sheet: s, cols: cols}
}

// List skips rows without a name.
func (r *Repository) List(context.Context) ([]domain.Product, error) {
	rows, err := r.sheet.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for i, row := range rows {
		p := r.decode(int64(i+1), row)
		if strings.TrimSpace(p.Name) == "" && p.RemoteID == 0 {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Repository) Get(_ context.Context, rowID int64) (*domain.Product, error) {
	row, err := r.sheet.Row(int(rowID))
	if errors.Is(err, sheet.ErrRowOutOfRange) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := r.decode(rowID, row)
	return &p, nil
}

func (r *Repository) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	row, err := r.sheet.Append(r.encode(product))
	if err != nil {
		return domain.Product{}, err
	}
	product.RowID = int64(row)
	return product, nil
}

func (r *Repository) Update(_ context.Context, product domain.Product) error {
	err := r.sheet.Update(int(product.RowID), r.encode(product))
	if errors.Is(err, sheet.ErrRowOutOfRange) {
		return ports.ErrNotFound
	}
	return err
}

func (r *Repository) decode(rowID int64, row []string) domain.Product {
	p := domain.Product{
		RowID:           rowID,
		RemoteID:        parseInt(sheet.Cell(row, r.cols.RemoteID)),
		Name:            sheet.Cell(row, r.cols.Name),
		Category:        sheet.Cell(row, r.cols.Category),
		Price:           parseFloat(sheet.Cell(row, r.cols.Price)),
		DiscountedPrice: parseFloat(sheet.Cell(row, r.cols.DiscountedPrice)),
		Description:     sheet.Cell(row, r.cols.Description),
		Brand:           sheet.Cell(row, r.cols.Brand),
		Stock:           parseFloat(sheet.Cell(row, r.cols.Stock)),
		RemoteCode:      sheet.Cell(row, r.cols.RemoteCode),
	}
	if ts, err := time.Parse(time.RFC3339, sheet.Cell(row, r.cols.LastSync)); err == nil {
		p.LastSyncedAt = &ts
	}
	return p
}

func (r *Repository) encode(p domain.Product) map[int]string {
	values := map[int]string{
		r.cols.Name:            p.Name,
		r.cols.Category:        p.Category,
		r.cols.Price:           formatFloat(p.Price),
		r.cols.DiscountedPrice: formatFloat(p.DiscountedPrice),
		r.cols.Description:     p.Description,
		r.cols.Brand:           p.Brand,
		r.cols.Stock:           formatFloat(p.Stock),
		r.cols.RemoteCode:      p.RemoteCode,
		r.cols.RemoteID:        "",
		r.cols.LastSync:        "",
	}
	if p.RemoteID != 0 {
		values[r.cols.RemoteID] = strconv.FormatInt(p.RemoteID, 10)
	}
	if p.LastSyncedAt != nil {
		values[r.cols.LastSync] = p.LastSyncedAt.UTC().Format(time.RFC3339)
	}
	delete(values, 0)
	return values
}

func parseInt(raw string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return n
}

// parseFloat accepts both "12.5" and the comma decimal form "12,5".
func parseFloat(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return f
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
