package resilience

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ WindowStore = (*PostgresWindowStore)(nil)

// PostgresWindowStore shares rate windows between processes through PostgreSQL.
type PostgresWindowStore struct {
	db *gorm.DB
}

// NewPostgresWindowStore wires a gorm-backed store. Caller manages DB lifecycle.
func NewPostgresWindowStore(db *gorm.DB) *PostgresWindowStore {
	return &PostgresWindowStore{db: db}
}

type rateWindowRecord struct {
	CallerID    string    `gorm:"primaryKey;column:caller_id;size:255"`
	Count       int       `gorm:"column:request_count"`
	WindowStart time.Time `gorm:"column:window_start"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (rateWindowRecord) TableName() string { return "rate_windows" }

func (s *PostgresWindowStore) Get(ctx context.Context, callerID string) (*RateWindow, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record rateWindowRecord
	if err := s.db.WithContext(ctx).First(&record, "caller_id = ?", callerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &RateWindow{
		CallerID:    record.CallerID,
		Count:       record.Count,
		WindowStart: record.WindowStart,
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

func (s *PostgresWindowStore) Put(ctx context.Context, window RateWindow) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := rateWindowRecord{
		CallerID:    window.CallerID,
		Count:       window.Count,
		WindowStart: window.WindowStart,
		ExpiresAt:   window.ExpiresAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "caller_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"request_count": record.Count,
				"window_start":  record.WindowStart,
				"expires_at":    record.ExpiresAt,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

func (s *PostgresWindowStore) Delete(ctx context.Context, callerID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&rateWindowRecord{}, "caller_id = ?", callerID).Error
}

// PurgeExpired drops windows whose TTL has elapsed.
func (s *PostgresWindowStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&rateWindowRecord{})
	return result.RowsAffected, result.Error
}

func (s *PostgresWindowStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres rate window store not configured")
	}
	return nil
}
