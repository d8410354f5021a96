// Package sheet keeps sealed credentials as key/value rows of a file-backed
// sheet, for installations that run without a database.
package sheet

import (
	"context"
	"sync"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

// Header is the column layout of the secrets sheet.
var Header = []string{"Key", "Value"}

const (
	colKey   = 1
	colValue = 2
)

var _ ports.SecretStore = (*SecretStore)(nil)

// SecretStore maps keys to rows. Deleted keys keep their row with an empty value.
type SecretStore struct {
	mu    sync.Mutex
	sheet *sheet.Sheet
}

func NewSecretStore(s *sheet.Sheet) *SecretStore {
	return &SecretStore{sheet: s}
}

func (s *SecretStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, value, err := s.find(key)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", ports.ErrNotFound
	}
	return value, nil
}

func (s *SecretStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, _, err := s.find(key)
	if err != nil {
		return err
	}
	if row == 0 {
		_, err = s.sheet.Append(map[int]string{colKey: key, colValue: value})
		return err
	}
	return s.sheet.Update(row, map[int]string{colValue: value})
}

func (s *SecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, _, err := s.find(key)
	if err != nil || row == 0 {
		return err
	}
	return s.sheet.Update(row, map[int]string{colValue: ""})
}

// find returns the 1-based data row holding key, or 0 when absent.
func (s *SecretStore) find(key string) (int, string, error) {
	rows, err := s.sheet.Rows()
	if err != nil {
		return 0, "", err
	}
	for i, row := range rows {
		if sheet.Cell(row, colKey) == key {
			return i + 1, sheet.Cell(row, colValue), nil
		}
	}
	return 0, "", nil
}
