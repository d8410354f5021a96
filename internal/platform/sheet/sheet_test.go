package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSheet_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.csv")
	s, err := Open(path, "Order", "Products")
	require.NoError(t, err)

	row, err := s.Append(map[int]string{1: "1001", 2: "Widget A x3, Widget B x1"})
	require.NoError(t, err)
	require.Equal(t, 1, row)

	require.NoError(t, s.Update(1, map[int]string{4: "IMPORTED"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Order", "Products"}, reopened.Header())
	got, err := reopened.Row(1)
	require.NoError(t, err)
	require.Equal(t, []string{"1001", "Widget A x3, Widget B x1", "", "IMPORTED"}, got)
}

func TestSheet_SeesExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	s, err := Open(path, "Name")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Name\nLamp\nChair\n"), 0o644))
	rows, err := s.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Chair", Cell(rows[1], 1))
}

func TestSheet_Bounds(t *testing.T) {
	s := NewMemory("A")
	_, err := s.Row(1)
	require.ErrorIs(t, err, ErrRowOutOfRange)
	require.ErrorIs(t, s.Update(3, map[int]string{1: "x"}), ErrRowOutOfRange)
	_, err = s.Append(map[int]string{0: "x"})
	require.ErrorIs(t, err, ErrColumnOutOfRange)

	require.Equal(t, "", Cell([]string{"a"}, 2))
	require.Equal(t, "", Cell([]string{"a"}, 0))

	_, err = s.Append(map[int]string{1: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Truncate())
	rows, err := s.Rows()
	require.NoError(t, err)
	require.Empty(t, rows)
}
