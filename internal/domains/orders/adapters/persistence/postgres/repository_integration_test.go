//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderspostgres "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/testutil/pgtest"
)

func sampleOrder() domain.Order {
	return domain.Order{
		Number:       "#1001",
		Date:         time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		ProductsText: "Widget A x3",
		Total:        30,
		Customer: domain.Customer{
			Name:    "Mario Rossi",
			Email:   "mario@example.com",
			City:    "Milano",
			Country: "Italia",
		},
	}
}

func TestRepository_AddGetAndSaveSync(t *testing.T) {
	db := pgtest.Start(t)
	repo := orderspostgres.NewRepository(db)
	ctx := context.Background()

	rowID, err := repo.Add(ctx, sampleOrder())
	require.NoError(t, err)
	assert.NotZero(t, rowID)

	got, err := repo.Get(ctx, rowID)
	require.NoError(t, err)
	assert.Equal(t, "#1001", got.Number)
	assert.Equal(t, "2025-06-03", got.Date.Format("2006-01-02"))
	assert.Equal(t, domain.StatusEmpty, got.Sync.Status)
	assert.True(t, got.Eligible())

	syncedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveSync(ctx, rowID, domain.Sync{
		Status:           domain.StatusImported,
		RemoteDocumentID: 901,
		RemoteClientID:   501,
		SyncedAt:         &syncedAt,
		Warnings:         []string{"Mystery x1: line item has no catalog price"},
	}))

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	imported := orders[0]
	assert.Equal(t, domain.StatusImported, imported.Sync.Status)
	assert.EqualValues(t, 901, imported.Sync.RemoteDocumentID)
	assert.EqualValues(t, 501, imported.Sync.RemoteClientID)
	assert.Len(t, imported.Sync.Warnings, 1)
	assert.False(t, imported.Eligible())
	assert.Equal(t, "Mario Rossi", imported.Customer.Name, "sync writes leave order columns alone")

	assert.ErrorIs(t, repo.SaveSync(ctx, rowID+100, domain.Sync{Status: domain.StatusError}), ports.ErrNotFound)
	_, err = repo.Get(ctx, rowID+100)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestIdempotencyStore_SaveIsIdempotent(t *testing.T) {
	store := orderspostgres.NewIdempotencyStore(pgtest.Start(t))
	ctx := context.Background()

	missing, err := store.Get(ctx, "order:#1001")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := store.Save(ctx, ports.IdempotencyRecord{Key: "order:#1001", RequestHash: "abc", DocumentID: 901})
	require.NoError(t, err)
	assert.EqualValues(t, 901, first.DocumentID)

	again, err := store.Save(ctx, ports.IdempotencyRecord{Key: "order:#1001", RequestHash: "abc", DocumentID: 901})
	require.NoError(t, err)
	assert.EqualValues(t, 901, again.DocumentID)

	conflict, err := store.Save(ctx, ports.IdempotencyRecord{Key: "order:#1001", RequestHash: "other", DocumentID: 902})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, conflict)
	assert.EqualValues(t, 901, conflict.DocumentID)
}
