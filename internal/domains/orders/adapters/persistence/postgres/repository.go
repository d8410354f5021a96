package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed order repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts an imported storefront order and returns its row id.
func (r *Repository) Add(ctx context.Context, order domain.Order) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	record := toRecord(order)
	record.RowID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, err
	}
	return record.RowID, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []OrderRecord
	if err := r.db.WithContext(ctx).Order("row_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(records))
	for i := range records {
		out = append(out, toDomain(&records[i]))
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, rowID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := r.db.WithContext(ctx).First(&record, "row_id = ?", rowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	o := toDomain(&record)
	return &o, nil
}

// SaveSync writes only the sync columns.
func (r *Repository) SaveSync(ctx context.Context, rowID int64, sync domain.Sync) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&OrderRecord{}).Where("row_id = ?", rowID).Updates(map[string]any{
		"sync_status":        string(sync.Status),
		"remote_document_id": sync.RemoteDocumentID,
		"remote_client_id":   sync.RemoteClientID,
		"sync_error":         sync.Error,
		"synced_at":          sync.SyncedAt,
		"sync_warnings":      pq.StringArray(sync.Warnings),
		"updated_at":         time.Now().UTC(),
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
		return errors.New("postgres order repository not configured")
	}
	return nil
}

// OrderRecord is the gorm schema of the orders table.
type OrderRecord struct {
	RowID            int64          `gorm:"primaryKey;autoIncrement;column:row_id"`
	Number           string         `gorm:"column:order_number;index"`
	OrderDate        *time.Time     `gorm:"column:order_date;type:date"`
	ShippingMethod   string         `gorm:"column:shipping_method"`
	TransactionID    string         `gorm:"column:transaction_id"`
	ProductsText     string         `gorm:"column:products_text;type:text"`
	Total            float64        `gorm:"column:total"`
	CustomerName     string         `gorm:"column:customer_name"`
	Email            string         `gorm:"column:email;index"`
	Phone            string         `gorm:"column:phone"`
	Address          string         `gorm:"column:address"`
	City             string         `gorm:"column:city"`
	PostalCode       string         `gorm:"column:postal_code"`
	Country          string         `gorm:"column:country"`
	State            string         `gorm:"column:state"`
	SyncStatus       string         `gorm:"column:sync_status;type:varchar(16);index"`
	RemoteDocumentID int64          `gorm:"column:remote_document_id"`
	RemoteClientID   int64          `gorm:"column:remote_client_id"`
	SyncError        string         `gorm:"column:sync_error;size:200"`
	SyncedAt         *time.Time     `gorm:"column:synced_at"`
	SyncWarnings     pq.StringArray `gorm:"column:sync_warnings;type:text[]"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (OrderRecord) TableName() string { return "orders" }

func toRecord(o domain.Order) OrderRecord {
	record := OrderRecord{
		RowID:            o.RowID,
		Number:           o.Number,
		ShippingMethod:   o.ShippingMethod,
		TransactionID:    o.TransactionID,
		ProductsText:     o.ProductsText,
		Total:            o.Total,
		CustomerName:     o.Customer.Name,
		Email:            o.Customer.Email,
		Phone:            o.Customer.Phone,
		Address:          o.Customer.Address,
		City:             o.Customer.City,
		PostalCode:       o.Customer.PostalCode,
		Country:          o.Customer.Country,
		State:            o.Customer.State,
		SyncStatus:       string(o.Sync.Status),
		RemoteDocumentID: o.Sync.RemoteDocumentID,
		RemoteClientID:   o.Sync.RemoteClientID,
		SyncError:        o.Sync.Error,
		SyncedAt:         o.Sync.SyncedAt,
		SyncWarnings:     pq.StringArray(o.Sync.Warnings),
	}
	if !o.Date.IsZero() {
		d := o.Date
		record.OrderDate = &d
	}
	return record
}

func toDomain(r *OrderRecord) domain.Order {
	o := domain.Order{
		RowID:          r.RowID,
		Number:         r.Number,
		ShippingMethod: r.ShippingMethod,
		TransactionID:  r.TransactionID,
		ProductsText:   r.ProductsText,
		Total:          r.Total,
		Customer: domain.Customer{
			Name:       r.CustomerName,
			Email:      r.Email,
			Phone:      r.Phone,
			Address:    r.Address,
			City:       r.City,
			PostalCode: r.PostalCode,
			Country:    r.Country,
			State:      r.State,
		},
		Sync: domain.Sync{
			Status:           domain.Status(r.SyncStatus),
			RemoteDocumentID: r.RemoteDocumentID,
			RemoteClientID:   r.RemoteClientID,
			Error:            r.SyncError,
			SyncedAt:         r.SyncedAt,
		},
	}
	if r.OrderDate != nil {
		o.Date = *r.OrderDate
	}
	if len(r.SyncWarnings) > 0 {
		o.Sync.Warnings = []string(r.SyncWarnings)
	}
	return o
}
