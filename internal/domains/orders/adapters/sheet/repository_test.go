package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

func TestRepository_DecodesStorefrontRow(t *testing.T) {
	cols := DefaultColumns()
	s, err := sheet.Open(filepath.Join(t.TempDir(), "ordini.csv"), cols.Header()...)
	require.NoError(t, err)
	_, err = s.Append(map[int]string{
		1: "1001", 2: "14/02/2025", 4: "tx-9", 5: "Widget A x3, Widget B x1", 6: "€ 49,90",
		7: "Anna Rossi", 8: "anna@example.com", 11: "Milano",
	})
	require.NoError(t, err)
	_, err = s.Append(map[int]string{})
	require.NoError(t, err)
	repo := NewRepository(s, cols)

	orders, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	require.Equal(t, int64(1), o.RowID)
	require.Equal(t, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), o.Date)
	require.Equal(t, 49.9, o.Total)
	require.Equal(t, "Milano", o.Customer.City)
	require.True(t, o.Paid())
	require.Equal(t, domain.StatusEmpty, o.Sync.Status)
}

func TestRepository_DecodesTotals(t *testing.T) {
	cases := []struct {
		cell       string
		total      float64
		unreadable string
	}{
		{cell: "1.234,50", total: 1234.5},
		{cell: "1,234.50", total: 1234.5},
		{cell: "€ 1.234,50", total: 1234.5},
		{cell: "49,90", total: 49.9},
		{cell: "", total: 0},
		{cell: "quarantanove", unreadable: "quarantanove"},
	}
	for _, tc := range cases {
		t.Run(tc.cell, func(t *testing.T) {
			cols := DefaultColumns()
			s := sheet.NewMemory(cols.Header()...)
			_, err := s.Append(map[int]string{1: "1003", 2: "2025-02-14", 5: "Lamp x1", 6: tc.cell})
			require.NoError(t, err)

			o, err := NewRepository(s, cols).Get(context.Background(), 1)
			require.NoError(t, err)
			require.InDelta(t, tc.total, o.Total, 1e-9)
			require.Equal(t, tc.unreadable, o.UnreadableTotal)
			if tc.unreadable != "" {
				require.ErrorIs(t, o.Validate(), domain.ErrBadTotal)
			} else {
				require.NoError(t, o.Validate())
			}
		})
	}
}

func TestRepository_SaveSyncWritesOnlySyncColumns(t *testing.T) {
	cols := DefaultColumns()
	cols.Warnings = 20
	s := sheet.NewMemory(cols.Header()...)
	_, err := s.Append(map[int]string{1: "1002", 5: "Lamp x1"})
	require.NoError(t, err)
	repo := NewRepository(s, cols)
	ctx := context.Background()

	synced := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSync(ctx, 1, domain.Sync{
		Status: domain.StatusImported, RemoteDocumentID: 55, RemoteClientID: 8,
		SyncedAt: &synced, Warnings: []string{"a", "b"},
	}))

	row, err := s.Row(1)
	require.NoError(t, err)
	require.Equal(t, "1002", sheet.Cell(row, 1))
	require.Equal(t, "Lamp x1", sheet.Cell(row, 5))
	require.Equal(t, "IMPORTED", sheet.Cell(row, 15))
	require.Equal(t, "55", sheet.Cell(row, 16))
	require.Equal(t, "8", sheet.Cell(row, 17))
	require.Equal(t, "a; b", sheet.Cell(row, 20))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, synced, *got.Sync.SyncedAt)
	require.Equal(t, []string{"a", "b"}, got.Sync.Warnings)

	require.ErrorIs(t, repo.SaveSync(ctx, 7, domain.Sync{}), ports.ErrNotFound)
}
