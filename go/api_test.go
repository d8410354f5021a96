package syncserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
	catalogmemory "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/memory"
	catalogremote "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/remote"
	catalogapp "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/application"
	credcrypto "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/crypto"
	credmemory "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/memory"
	credentialsapp "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/application"
	ordersmemory "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/memory"
	ordersremote "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/remote"
	ordersworkflows "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/storelink-fic-sync/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/platform/synclog"
	apierrors "github.com/Apurer/storelink-fic-sync/internal/shared/errors"
	"github.com/Apurer/storelink-fic-sync/internal/testutil/fictwin"
)

const twinKey = "twin-key-0123456789abcdefghijklmn"

type harness struct {
	router  *gin.Engine
	twin    *fictwin.Twin
	orders  *ordersmemory.Repository
	logs    *synclog.MemoryStore
	breaker *resilience.Breaker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	twin := fictwin.New(twinKey, 77)
	t.Cleanup(twin.Close)

	cipher, err := credcrypto.NewAESGCM("install-http", credcrypto.DefaultSalt)
	require.NoError(t, err)
	credentials := credentialsapp.NewService(credentialsapp.NewVault(credmemory.NewSecretStore(), cipher))

	logs := synclog.NewMemoryStore()
	logger := slog.New(synclog.NewHandler(slog.NewTextHandler(io.Discard, nil), logs, nil))
	breaker := resilience.NewBreaker()
	limiter := resilience.NewRateLimiter(resilience.NewMemoryWindowStore(), resilience.WithLimit(5, time.Hour))
	client, err := fic.New(twin.URL(), credentials,
		fic.WithBreaker(breaker),
		fic.WithRateLimiter(limiter),
		fic.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		fic.WithLogger(logger),
	)
	require.NoError(t, err)

	catalog := catalogapp.NewReconciler(catalogmemory.NewRepository(), catalogremote.NewCatalog(client), catalogapp.WithLogger(logger))
	orderRepo := ordersmemory.NewRepository()
	settings := ordersapp.DefaultSettings()
	settings.Pause = 0
	engine := ordersapp.NewEngine(orderRepo, ordersremote.NewAccounting(client), catalog,
		ordersapp.WithSettings(settings), ordersapp.WithLogger(logger))

	router := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		CredentialsAPI: NewCredentialsAPI(credentials, client),
		SyncAPI:        NewSyncAPI(catalog, engine, ordersworkflows.NewInlineOrderWorkflows(engine)),
		ResilienceAPI:  NewResilienceAPI(breaker, limiter),
		LogsAPI:        NewLogsAPI(logs),
	})
	return &harness{router: router, twin: twin, orders: orderRepo, logs: logs, breaker: breaker}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCredentialsLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/v1/credentials", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[credentialsapp.Status](t, rec)
	require.False(t, status.Configured)
	require.Len(t, status.Problems, 2)

	rec = h.do(t, http.MethodPost, "/v1/credentials", CredentialsPayload{APIKey: "short", CompanyID: "77"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))

	rec = h.do(t, http.MethodPost, "/v1/credentials/test", CredentialsPayload{APIKey: twinKey, CompanyID: "77"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/v1/credentials", nil)
	status = decode[credentialsapp.Status](t, rec)
	require.True(t, status.Configured)
	require.Equal(t, "twin...klmn", status.MaskedKey)
	require.NotContains(t, rec.Body.String(), twinKey)

	rec = h.do(t, http.MethodDelete, "/v1/credentials", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/sync/products", nil)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	require.Equal(t, "validation", problem.Kind)
}

func TestSyncProductsThenOrders(t *testing.T) {
	h := newHarness(t)
	h.twin.SeedProducts(
		fictwin.Product{ID: 10, Name: "Widget A", NetPrice: 10},
		fictwin.Product{ID: 11, Name: "Widget B", NetPrice: 5},
	)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/credentials", CredentialsPayload{APIKey: twinKey, CompanyID: "77"}).Code)

	rec := h.do(t, http.MethodPost, "/v1/sync/products", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode[[]Product](t, h.do(t, http.MethodGet, "/v1/products", nil)), 2)

	row := h.orders.Add(ordersdomain.Order{
		Number:       "1001",
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ProductsText: "Widget A x3, Widget B x1",
		Total:        35,
		Customer:     ordersdomain.Customer{Name: "Mario Rossi", Email: "mario@example.com"},
	})

	rec = h.do(t, http.MethodPost, "/v1/sync/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	orders := decode[[]Order](t, h.do(t, http.MethodGet, "/v1/orders", nil))
	require.Len(t, orders, 1)
	require.Equal(t, row, orders[0].RowID)
	require.Equal(t, "IMPORTED", orders[0].Status)
	require.NotZero(t, orders[0].DocumentID)
	require.Len(t, h.twin.Documents(), 1)

	rec = h.do(t, http.MethodPost, "/v1/orders/1/notify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"rowId":1,"processed":false}`, rec.Body.String())

	entries, err := h.logs.List(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestSyncOrder_RecordsFailureOnRow(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/credentials", CredentialsPayload{APIKey: twinKey, CompanyID: "77"}).Code)
	h.orders.Add(ordersdomain.Order{Number: "1002", ProductsText: "Lamp x1"})

	rec := h.do(t, http.MethodPost, "/v1/orders/1/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[Order](t, rec)
	require.Equal(t, "ERROR", order.Status)
	require.Contains(t, order.Error, "date")

	rec = h.do(t, http.MethodPost, "/v1/orders/abc/sync", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/orders/9/sync", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResilienceEndpoints(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/credentials", CredentialsPayload{APIKey: twinKey, CompanyID: "77"}).Code)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "ops").Code)
	}
	rec := h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "ops")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "billing").Code)

	rec = h.do(t, http.MethodGet, "/v1/resilience/rate-limit/ops", nil)
	require.JSONEq(t, `{"caller":"ops","remaining":0}`, rec.Body.String())
	require.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/v1/resilience/rate-limit/ops", nil).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "ops").Code)

	for i := 0; i < resilience.DefaultFailureThreshold; i++ {
		h.twin.Fail(http.MethodGet, "/products", http.StatusBadRequest)
		require.Equal(t, http.StatusBadGateway, h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "breaker-test").Code)
	}
	rec = h.do(t, http.MethodGet, "/v1/resilience/breaker", nil)
	require.Contains(t, rec.Body.String(), `"state":"OPEN"`)
	rec = h.do(t, http.MethodPost, "/v1/sync/products", nil, CallerHeader, "breaker-probe")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/resilience/breaker/reset", nil)
	require.Contains(t, rec.Body.String(), `"state":"CLOSED"`)
}

func TestLogsEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, h.logs.Append(ctx, synclog.Entry{Level: "ERROR", Message: msg}))
	}

	rec := h.do(t, http.MethodGet, "/v1/logs?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]synclog.Entry](t, rec)
	require.Len(t, entries, 2)
	require.Equal(t, "third", entries[0].Message)

	require.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/v1/logs", nil).Code)
	require.Empty(t, decode[[]synclog.Entry](t, h.do(t, http.MethodGet, "/v1/logs", nil)))
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_ServesHealthWithoutDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(ApiHandleFunctions{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type fixedCounters map[string]int64

func (f fixedCounters) Counters(context.Context) (map[string]int64, error) { return f, nil }

func TestGetMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	empty := NewRouter(ApiHandleFunctions{})
	rec := httptest.NewRecorder()
	empty.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/resilience/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())

	withCounters := NewRouter(ApiHandleFunctions{
		ResilienceAPI: NewResilienceAPI(resilience.NewBreaker(), nil).WithCounters(fixedCounters{"resilience.breaker.transitions": 2}),
	})
	rec = httptest.NewRecorder()
	withCounters.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/resilience/metrics", nil))
	require.JSONEq(t, `{"resilience.breaker.transitions":2}`, rec.Body.String())
}
