package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed product repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Order("row_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(records))
	for i := range records {
		out = append(out, toDomain(&records[i]))
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, rowID int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record ProductRecord
	if err := r.db.WithContext(ctx).First(&record, "row_id = ?", rowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	p := toDomain(&record)
	return &p, nil
}

func (r *Repository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Product{}, err
	}
	record := toRecord(product)
	record.RowID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.Product{}, err
	}
	return toDomain(&record), nil
}

func (r *Repository) Update(ctx context.Context, product domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := toRecord(product)
	res := r.db.WithContext(ctx).Model(&ProductRecord{}).Where("row_id = ?", product.RowID).Updates(map[string]any{
		"remote_id":        record.RemoteID,
		"name":             record.Name,
		"category":         record.Category,
		"price":            record.Price,
		"discounted_price": record.DiscountedPrice,
		"description":      record.Description,
		"brand":            record.Brand,
		"stock":            record.Stock,
		"remote_code":      record.RemoteCode,
		"last_synced_at":   record.LastSyncedAt,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

// ProductRecord is the gorm schema of the products table.
type ProductRecord struct {
	RowID           int64      `gorm:"primaryKey;autoIncrement;column:row_id"`
	RemoteID        *int64     `gorm:"column:remote_id;uniqueIndex"`
	Name            string     `gorm:"column:name;index"`
	Category        string     `gorm:"column:category"`
	Price           float64    `gorm:"column:price"`
	DiscountedPrice float64    `gorm:"column:discounted_price"`
	Description     string     `gorm:"column:description;type:text"`
	Brand           string     `gorm:"column:brand"`
	Stock           float64    `gorm:"column:stock"`
	RemoteCode      string     `gorm:"column:remote_code"`
	LastSyncedAt    *time.Time `gorm:"column:last_synced_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (ProductRecord) TableName() string { return "products" }

func toRecord(p domain.Product) ProductRecord {
	record := ProductRecord{
		RowID:           p.RowID,
		Name:            p.Name,
		Category:        p.Category,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Description:     p.Description,
		Brand:           p.Brand,
		Stock:           p.Stock,
		RemoteCode:      p.RemoteCode,
		LastSyncedAt:    p.LastSyncedAt,
	}
	if p.RemoteID != 0 {
		id := p.RemoteID
		record.RemoteID = &id
	}
	return record
}

func toDomain(r *ProductRecord) domain.Product {
	p := domain.Product{
		RowID:           r.RowID,
		Name:            r.Name,
		Category:        r.Category,
		Price:           r.Price,
		DiscountedPrice: r.DiscountedPrice,
		Description:     r.Description,
		Brand:           r.Brand,
		Stock:           r.Stock,
		RemoteCode:      r.RemoteCode,
		LastSyncedAt:    r.LastSyncedAt,
	}
	if r.RemoteID != nil {
		p.RemoteID = *r.RemoteID
	}
	return p
}
