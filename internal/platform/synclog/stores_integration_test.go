//go:build integration
// +build integration

package synclog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/platform/synclog"
	"github.com/Apurer/storelink-fic-sync/internal/testutil/pgtest"
)

func TestPostgresStore_NewestFirstAndClear(t *testing.T) {
	store := synclog.NewPostgresStore(pgtest.Start(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for i, msg := range []string{"first", "second", "third"} {
		require.NoError(t, store.Append(ctx, synclog.Entry{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Level:     "INFO",
			Message:   msg,
			Data:      `{"row":2}`,
		}))
	}

	latest, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "third", latest[0].Message)
	assert.Equal(t, "second", latest[1].Message)
	assert.Equal(t, `{"row":2}`, latest[0].Data)
	assert.NotZero(t, latest[0].ID)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Clear(ctx))
	all, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
