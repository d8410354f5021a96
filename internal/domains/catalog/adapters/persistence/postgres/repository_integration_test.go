//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogpostgres "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/persistence/postgres"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	"github.com/Apurer/storelink-fic-sync/internal/testutil/pgtest"
)

func TestRepository_InsertListUpdate(t *testing.T) {
	repo := catalogpostgres.NewRepository(pgtest.Start(t))
	ctx := context.Background()

	local, err := repo.Insert(ctx, domain.Product{Name: "Local only", Category: domain.DefaultCategory, Price: 5})
	require.NoError(t, err)
	assert.NotZero(t, local.RowID)
	assert.Zero(t, local.RemoteID)

	synced := time.Now().UTC().Truncate(time.Second)
	remote, err := repo.Insert(ctx, domain.Product{RemoteID: 42, Name: "Widget", Price: 10.5, RemoteCode: "WA-1", LastSyncedAt: &synced})
	require.NoError(t, err)
	assert.Greater(t, remote.RowID, local.RowID)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Local only", products[0].Name)
	assert.EqualValues(t, 42, products[1].RemoteID)

	remote.Price = 12
	remote.Stock = 3
	require.NoError(t, repo.Update(ctx, remote))

	got, err := repo.Get(ctx, remote.RowID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Price)
	assert.Equal(t, 3.0, got.Stock)
	require.NotNil(t, got.LastSyncedAt)
	assert.True(t, got.LastSyncedAt.Equal(synced))
}

func TestRepository_MissingRows(t *testing.T) {
	repo := catalogpostgres.NewRepository(pgtest.Start(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, 99)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, domain.Product{RowID: 99, Name: "ghost"}), ports.ErrNotFound)
}

func TestRepository_RemoteIDIsUnique(t *testing.T) {
	repo := catalogpostgres.NewRepository(pgtest.Start(t))
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.Product{RemoteID: 7, Name: "A"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.Product{RemoteID: 7, Name: "B"})
	assert.Error(t, err)

	_, err = repo.Insert(ctx, domain.Product{Name: "local one"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.Product{Name: "local two"})
	require.NoError(t, err, "rows without a remote id do not collide")
}
