package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/platform/synclog"
)

func TestTeeLog_PersistsAndKeepsConsole(t *testing.T) {
	var console bytes.Buffer
	instruments := &Instruments{console: slog.NewJSONHandler(&console, nil)}
	store := synclog.NewMemoryStore()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logger := instruments.TeeLog(store, synclog.NewSwitch(false))
	logger.Info("not persisted")
	logger.Error("persisted", slog.String("order", "1001"))

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "persisted", entries[0].Message)
	require.Contains(t, console.String(), "not persisted")
	require.Same(t, logger, instruments.Logger)
}

func TestLogLevel_FromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	require.Equal(t, slog.LevelDebug, logLevel())
	t.Setenv("LOG_LEVEL", "loud")
	require.Equal(t, slog.LevelInfo, logLevel())
}

func TestNewSpanExporter_Selection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	none, err := newSpanExporter(context.Background(), "NONE", logger)
	require.NoError(t, err)
	require.Nil(t, none)

	stdout, err := newSpanExporter(context.Background(), ExporterStdout, logger)
	require.NoError(t, err)
	require.NotNil(t, stdout)

	_, err = newSpanExporter(context.Background(), "zipkin", logger)
	require.ErrorContains(t, err, "zipkin")
}

func TestInit_CountersSeeRecordedMetrics(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", ExporterNone)
	t.Setenv("LOG_LEVEL", "error")
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	ctx := context.Background()
	instruments, shutdown, err := Init(ctx, "observability-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(ctx) })

	counter, err := instruments.Meter("test").Int64Counter("resilience.breaker.transitions")
	require.NoError(t, err)
	counter.Add(ctx, 2)
	counter.Add(ctx, 1)

	counters, err := instruments.Counters(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, counters["resilience.breaker.transitions"])
}

func TestCounters_EmptyWithoutInit(t *testing.T) {
	var instruments *Instruments
	counters, err := instruments.Counters(context.Background())
	require.NoError(t, err)
	require.Empty(t, counters)
}
