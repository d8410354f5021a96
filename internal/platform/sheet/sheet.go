// Package sheet is a small tabular store: a header row plus data rows addressed
// by 1-based row and column numbers, optionally persisted as a CSV file. It is
// the exchange surface with the storefront export, which appends rows that the
// sync later annotates in place.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrRowOutOfRange    = errors.New("row out of range")
	ErrColumnOutOfRange = errors.New("column out of range")
)

// Sheet holds rows in memory and, when file-backed, re-reads the file before
// every read and rewrites it after every write.
type Sheet struct {
	mu     sync.Mutex
	path   string
	header []string
	rows   [][]string
}

// NewMemory returns a sheet that is never persisted.
func NewMemory(header ...string) *Sheet {
	return &Sheet{header: append([]string(nil), header...)}
}

// Open loads path, creating it with header when it does not exist.
func Open(path string, header ...string) (*Sheet, error) {
	s := &Sheet{path: path, header: append([]string(nil), header...)}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sheet dir: %w", err)
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Header returns the column titles.
func (s *Sheet) Header() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.header...)
}

// Rows returns a copy of every data row; index i holds row i+1.
func (s *Sheet) Rows() ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// Row returns a copy of one data row.
func (s *Sheet) Row(row int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	if row < 1 || row > len(s.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return append([]string(nil), s.rows[row-1]...), nil
}

// Update writes the given column values into an existing row in one step.
func (s *Sheet) Update(row int, values map[int]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if row < 1 || row > len(s.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	updated, err := setCells(s.rows[row-1], values)
	if err != nil {
		return err
	}
	s.rows[row-1] = updated
	return s.flush()
}

// Append adds a row and returns its number.
func (s *Sheet) Append(values map[int]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return 0, err
	}
	row, err := setCells(nil, values)
	if err != nil {
		return 0, err
	}
	s.rows = append(s.rows, row)
	if err := s.flush(); err != nil {
		s.rows = s.rows[:len(s.rows)-1]
		return 0, err
	}
	return len(s.rows), nil
}

// Truncate removes every data row, keeping the header.
func (s *Sheet) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	return s.flush()
}

// Cell returns the value at col (1-based) or "" when the row is shorter.
func Cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}

func setCells(row []string, values map[int]string) ([]string, error) {
	for col, value := range values {
		if col < 1 {
			return nil, fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
		}
		for len(row) < col {
			row = append(row, "")
		}
		row[col-1] = value
	}
	return row, nil
}

func (s *Sheet) load() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var header []string
	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", s.path, err)
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}
	if header != nil {
		s.header = header
	}
	s.rows = rows
	return nil
}

func (s *Sheet) flush() error {
	if s.path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sheet-*.csv")
	if err != nil {
		return fmt.Errorf("create temp sheet: %w", err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(s.header); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := w.WriteAll(s.rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
