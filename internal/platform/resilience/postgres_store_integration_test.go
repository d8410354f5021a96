//go:build integration
// +build integration

package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/testutil/pgtest"
)

func TestPostgresWindowStore_PutGetDelete(t *testing.T) {
	store := resilience.NewPostgresWindowStore(pgtest.Start(t))
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Second)

	missing, err := store.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Put(ctx, resilience.RateWindow{CallerID: "shop", Count: 1, WindowStart: start, ExpiresAt: start.Add(time.Hour)}))
	require.NoError(t, store.Put(ctx, resilience.RateWindow{CallerID: "shop", Count: 2, WindowStart: start, ExpiresAt: start.Add(time.Hour)}))

	got, err := store.Get(ctx, "shop")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.WindowStart.Equal(start))

	require.NoError(t, store.Delete(ctx, "shop"))
	got, err = store.Get(ctx, "shop")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresWindowStore_PurgeExpired(t *testing.T) {
	store := resilience.NewPostgresWindowStore(pgtest.Start(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Put(ctx, resilience.RateWindow{CallerID: "old", Count: 5, WindowStart: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Put(ctx, resilience.RateWindow{CallerID: "live", Count: 1, WindowStart: now, ExpiresAt: now.Add(time.Hour)}))

	purged, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	live, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestRateLimiter_SharesWindowsThroughPostgres(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	first := resilience.NewRateLimiter(resilience.NewPostgresWindowStore(db), resilience.WithLimit(2, time.Hour))
	second := resilience.NewRateLimiter(resilience.NewPostgresWindowStore(db), resilience.WithLimit(2, time.Hour))

	require.NoError(t, first.Check(ctx, "shop"))
	require.NoError(t, second.Check(ctx, "shop"))
	assert.Error(t, first.Check(ctx, "shop"))
}
