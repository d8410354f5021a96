package synclog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SheetStore)(nil)
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.entries, limit), nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// PostgresStore persists entries in the sync_log table.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := Record{Timestamp: entry.Timestamp, Level: entry.Level, Message: entry.Message, Data: entry.Data}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, Entry{ID: r.ID, Timestamp: r.Timestamp, Level: r.Level, Message: r.Message, Data: r.Data})
	}
	return out, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Record{}).Error
}

func (s *PostgresStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres sync log store not configured")
	}
	return nil
}

// Record is the gorm schema of the sync_log table.
type Record struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Timestamp time.Time `gorm:"column:logged_at;index"`
	Level     string    `gorm:"column:level;type:varchar(16);index"`
	Message   string    `gorm:"column:message;type:text"`
	Data      string    `gorm:"column:data;type:text"`
}

func (Record) TableName() string { return "sync_log" }

// SheetHeader is the column layout of the log sheet.
var SheetHeader = []string{"Timestamp", "Level", "Message", "Data"}

// SheetStore appends entries as rows of a sheet.
type SheetStore struct {
	sheet *sheet.Sheet
}

func NewSheetStore(s *sheet.Sheet) *SheetStore {
	return &SheetStore{sheet: s}
}

func (s *SheetStore) Append(_ context.Context, entry Entry) error {
	_, err := s.sheet.Append(map[int]string{
		1: entry.Timestamp.Format(time.RFC3339),
		2: entry.Level,
		3: entry.Message,
		4: entry.Data,
	})
	return err
}

func (s *SheetStore) List(_ context.Context, limit int) ([]Entry, error) {
	rows, err := s.sheet.Rows()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		ts, _ := time.Parse(time.RFC3339, sheet.Cell(row, 1))
		entries = append(entries, Entry{
			ID:        int64(i + 1),
			Timestamp: ts,
			Level:     sheet.Cell(row, 2),
			Message:   sheet.Cell(row, 3),
			Data:      sheet.Cell(row, 4),
		})
	}
	return newestFirst(entries, limit), nil
}

func (s *SheetStore) Clear(context.Context) error {
	return s.sheet.Truncate()
}

func newestFirst(entries []Entry, limit int) []Entry {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// ParseLimit reads a list limit, returning fallback for empty or invalid input.
func ParseLimit(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
