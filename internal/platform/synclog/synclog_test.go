package synclog

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
)

func TestHandler_PersistsByLevelAndSwitch(t *testing.T) {
	store := NewMemoryStore()
	sw := NewSwitch(false)
	var out bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&out, nil), store, sw))
	ctx := context.Background()

	logger.InfoContext(ctx, "skipped while disabled")
	logger.WarnContext(ctx, "throttled", slog.String("caller", "ops"))
	logger.ErrorContext(ctx, "order failed", slog.Int("row", 4))
	sw.Set(true)
	logger.InfoContext(ctx, "order imported")

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "order imported", entries[0].Message)
	require.Equal(t, "ERROR", entries[1].Level)
	require.JSONEq(t, `{"row":4}`, entries[1].Data)
	require.Equal(t, "WARN", entries[2].Level)

	require.Contains(t, out.String(), "skipped while disabled")
}

func TestHandler_DebugIsNeverPersisted(t *testing.T) {
	store := NewMemoryStore()
	logger := slog.New(NewHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug}), store, nil))
	logger.Debug("noise")

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestHandler_CarriesAttrsAndGroups(t *testing.T) {
	store := NewMemoryStore()
	logger := slog.New(NewHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), store, nil)).
		With(slog.String("component", "orders")).
		WithGroup("order")
	logger.Warn("line dropped", slog.String("number", "1001"))

	entries, err := store.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.JSONEq(t, `{"component":"orders","order.number":"1001"}`, entries[0].Data)
}

func TestStores_ListAndClear(t *testing.T) {
	logSheet, err := sheet.Open(filepath.Join(t.TempDir(), "log.csv"), SheetHeader...)
	require.NoError(t, err)

	for name, store := range map[string]Store{
		"memory": NewMemoryStore(),
		"sheet":  NewSheetStore(logSheet),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, msg := range []string{"one", "two", "three"} {
				require.NoError(t, store.Append(ctx, Entry{Level: "INFO", Message: msg}))
			}
			latest, err := store.List(ctx, 2)
			require.NoError(t, err)
			require.Len(t, latest, 2)
			require.Equal(t, "three", latest[0].Message)
			require.Equal(t, "two", latest[1].Message)

			require.NoError(t, store.Clear(ctx))
			all, err := store.List(ctx, 0)
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestParseLimit(t *testing.T) {
	require.Equal(t, 50, ParseLimit("", 50))
	require.Equal(t, 50, ParseLimit("-3", 50))
	require.Equal(t, 7, ParseLimit("7", 50))
}
