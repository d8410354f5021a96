package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for every table the adapters read and write.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&secretRecord{},
		&rateWindowRecord{},
		&syncLogRecord{},
		&productRecord{},
		&orderRecord{},
		&orderIdempotencyRecord{},
	)
}

// Secret schema mirrors the credentials Postgres adapter.
type secretRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (secretRecord) TableName() string { return "secure_properties" }

// Rate window schema mirrors the resilience window store.
type rateWindowRecord struct {
	CallerID    string    `gorm:"primaryKey;column:caller_id;size:255"`
	Count       int       `gorm:"column:request_count"`
	WindowStart time.Time `gorm:"column:window_start"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (rateWindowRecord) TableName() string { return "rate_windows" }

// Sync log schema mirrors the synclog Postgres store.
type syncLogRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Timestamp time.Time `gorm:"column:logged_at;index"`
	Level     string    `gorm:"column:level;type:varchar(16);index"`
	Message   string    `gorm:"column:message;type:text"`
	Data      string    `gorm:"column:data;type:text"`
}

func (syncLogRecord) TableName() string { return "sync_log" }

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
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

func (productRecord) TableName() string { return "products" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
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

func (orderRecord) TableName() string { return "orders" }

// Idempotency schema mirrors the orders idempotency store.
type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	DocumentID  int64     `gorm:"column:document_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }
