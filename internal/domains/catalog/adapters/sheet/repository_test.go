package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

func TestRepository_RoundTripThroughColumns(t *testing.T) {
	cols := DefaultColumns()
	s, err := sheet.Open(filepath.Join(t.TempDir(), "articoli.csv"), cols.Header()...)
	require.NoError(t, err)
	repo := NewRepository(s, cols)
	ctx := context.Background()

	synced := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	inserted, err := repo.Insert(ctx, domain.Product{
		RemoteID: 31, Name: "Lamp", Category: "Lighting", Price: 19.9, Stock: 4,
		RemoteCode: "L-1", LastSyncedAt: &synced,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted.RowID)

	row, err := s.Row(1)
	require.NoError(t, err)
	require.Equal(t, "Lamp", sheet.Cell(row, 1))
	require.Equal(t, "19.9", sheet.Cell(row, 3))
	require.Equal(t, "4", sheet.Cell(row, 10))
	require.Equal(t, "31", sheet.Cell(row, 15))
	require.Equal(t, "L-1", sheet.Cell(row, 16))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, inserted, *got)

	got.Stock = 3
	require.NoError(t, repo.Update(ctx, *got))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 3.0, all[0].Stock)

	_, err = repo.Get(ctx, 9)
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, domain.Product{RowID: 9}), ports.ErrNotFound)
}

func TestRepository_ReadsOperatorFormats(t *testing.T) {
	s := sheet.NewMemory(DefaultColumns().Header()...)
	_, err := s.Append(map[int]string{1: "Sedia", 3: "12,50"})
	require.NoError(t, err)
	_, err = s.Append(map[int]string{})
	require.NoError(t, err)
	repo := NewRepository(s, DefaultColumns())

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 12.5, all[0].Price)
	require.Nil(t, all[0].LastSyncedAt)
}
