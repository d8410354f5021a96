package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

var _ ports.SecretStore = (*SecretStore)(nil)

// SecretStore persists sealed credential values in PostgreSQL.
type SecretStore struct {
	db *gorm.DB
}

// NewSecretStore wires a PostgreSQL-backed secret store. Caller manages DB lifecycle.
func NewSecretStore(db *gorm.DB) *SecretStore {
	return &SecretStore{db: db}
}

type secretRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (secretRecord) TableName() string { return "secure_properties" }

// Get loads a sealed value, returning ports.ErrNotFound when absent.
func (s *SecretStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.ensureDB(); err != nil {
		return "", err
	}
	var record secretRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ports.ErrNotFound
		}
		return "", err
	}
	return record.Value, nil
}

// Put upserts a sealed value.
func (s *SecretStore) Put(ctx context.Context, key, value string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := secretRecord{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      record.Value,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

// Delete removes a value; deleting a missing key is not an error.
func (s *SecretStore) Delete(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&secretRecord{}, "key = ?", key).Error
}

func (s *SecretStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres secret store not configured")
	}
	return nil
}
