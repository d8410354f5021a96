package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSettings_EmptyDocumentKeepsDefaults(t *testing.T) {
	settings, err := ParseSettings(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), settings)
	require.Equal(t, time.Hour, settings.SyncInterval)
	require.Equal(t, "invoice", settings.DocumentType)
	require.Equal(t, 22.0, settings.VATRate)
	require.Equal(t, int64(3), settings.PaymentMethod.ID)
	require.Equal(t, "Bonifico bancario", settings.PaymentMethod.Name)
	require.True(t, settings.LoggingEnabled)
	require.Equal(t, 100, settings.RateLimit.MaxRequests)
	require.Equal(t, 60*time.Minute, settings.RateLimit.Window)
	require.Equal(t, 5, settings.Breaker.FailureThreshold)
	require.Equal(t, 300*time.Second, settings.Breaker.ResetTimeout)
	require.Equal(t, "Generale", settings.Products.DefaultCategory)
}

func TestParseSettings_OverlaysPartialDocument(t *testing.T) {
	doc := `
sync_interval: 30m
vat_rate: 10
logging_enabled: false
strict_line_items: true
pause: 250ms
payment_method:
  name: Carta di credito
products:
  page_size: 25
  columns:
    stock: 11
orders:
  columns:
    warnings: 20
rate_limit:
  max_requests: 40
breaker:
  reset_timeout: 2m
`
	settings, err := ParseSettings(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, settings.SyncInterval)
	require.Equal(t, 10.0, settings.VATRate)
	require.False(t, settings.LoggingEnabled)
	require.True(t, settings.StrictLineItems)
	require.Equal(t, 250*time.Millisecond, settings.Pause)
	require.Equal(t, int64(3), settings.PaymentMethod.ID)
	require.Equal(t, "Carta di credito", settings.PaymentMethod.Name)
	require.Equal(t, 25, settings.Products.PageSize)
	require.Equal(t, 20, settings.Products.MaxPages)
	require.Equal(t, 11, settings.Products.Columns.Stock)
	require.Equal(t, 1, settings.Products.Columns.Name)
	require.Equal(t, 20, settings.Orders.Columns.Warnings)
	require.Equal(t, 15, settings.Orders.Columns.Status)
	require.Equal(t, 40, settings.RateLimit.MaxRequests)
	require.Equal(t, 60*time.Minute, settings.RateLimit.Window)
	require.Equal(t, 5, settings.Breaker.FailureThreshold)
	require.Equal(t, 2*time.Minute, settings.Breaker.ResetTimeout)

	engine := settings.OrderEngine()
	require.True(t, engine.Strict)
	require.Equal(t, 10.0, engine.VATRate)
	require.Equal(t, "Italia", engine.DefaultCountry)
	require.Len(t, settings.CatalogOptions(), 2)
}

func TestParseSettings_RejectsUnknownFields(t *testing.T) {
	_, err := ParseSettings(strings.NewReader("vat: 22\n"))
	require.ErrorContains(t, err, "decode")
}

func TestParseSettings_ReportsEveryProblem(t *testing.T) {
	doc := `
sync_interval: 10s
document_type: ""
rate_limit:
  max_requests: 0
orders:
  columns:
    order_no: 0
    fic_status: 0
`
	_, err := ParseSettings(strings.NewReader(doc))
	require.Error(t, err)
	for _, want := range []string{"sync_interval", "document_type", "rate_limit", "orders.columns.order_no", "orders.columns.fic_status"} {
		require.ErrorContains(t, err, want)
	}
}

func TestLoadSettings(t *testing.T) {
	settings, err := LoadSettings("")
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), settings)

	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document_type: receipt\n"), 0o600))
	settings, err = LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, "receipt", settings.DocumentType)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read settings")
}
