// Package bootstrap turns configuration into a wired sync application shared
// by the HTTP API, the Temporal worker and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
	catalogmemory "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/persistence/postgres"
	catalogremote "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/remote"
	catalogsheet "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/sheet"
	catalogapp "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/application"
	catalogports "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	credcrypto "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/crypto"
	credmemory "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/memory"
	credpostgres "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/persistence/postgres"
	credsheet "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/sheet"
	credentialsapp "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/application"
	credentialsports "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
	ordersmemory "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/persistence/postgres"
	ordersremote "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/remote"
	orderssheet "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/sheet"
	ordersapp "github.com/Apurer/storelink-fic-sync/internal/domains/orders/application"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/migrations"
	platformobservability "github.com/Apurer/storelink-fic-sync/internal/platform/observability"
	platformpostgres "github.com/Apurer/storelink-fic-sync/internal/platform/postgres"
	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/platform/sheet"
	"github.com/Apurer/storelink-fic-sync/internal/platform/synclog"
)

// InstallationKey is the secret-store key holding the generated installation id.
const InstallationKey = "FIC_INSTALLATION_ID"

// App is the composed sync engine.
type App struct {
	Config   Config
	Settings Settings
	Logger   *slog.Logger

	Credentials *credentialsapp.Service
	Client      *fic.Client
	Breaker     *resilience.Breaker
	Limiter     *resilience.RateLimiter
	Logs        synclog.Store
	LogSwitch   *synclog.Switch
	Catalog     catalogports.Service
	Orders      ordersports.Service
	OrderRepo   ordersports.Repository

	// Windows is non-nil when rate windows are persisted in Postgres.
	Windows *resilience.PostgresWindowStore

	closers []func()
}

// stores bundles the persistence adapters for one backend.
type stores struct {
	secrets     credentialsports.SecretStore
	windows     resilience.WindowStore
	logs        synclog.Store
	products    catalogports.Repository
	orders      ordersports.Repository
	idempotency ordersports.IdempotencyStore
	pgWindows   *resilience.PostgresWindowStore
}

// New wires every component for cfg and settings. instruments may be nil.
func New(ctx context.Context, cfg Config, settings Settings, instruments *platformobservability.Instruments) (*App, error) {
	app := &App{Config: cfg, Settings: settings, LogSwitch: synclog.NewSwitch(settings.LoggingEnabled)}
	bootLogger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		bootLogger = instruments.Logger
	}

	st, err := app.openStores(ctx, bootLogger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Logs = st.logs
	app.Windows = st.pgWindows
	app.OrderRepo = st.orders
	if instruments != nil {
		app.Logger = instruments.TeeLog(st.logs, app.LogSwitch)
	} else {
		app.Logger = slog.New(synclog.NewHandler(bootLogger.Handler(), st.logs, app.LogSwitch))
	}
	logger := app.Logger

	installationID, err := resolveInstallationID(ctx, cfg.InstallationID, st.secrets)
	if err != nil {
		app.Close()
		return nil, err
	}
	cipher, err := credcrypto.NewAESGCM(installationID, credcrypto.DefaultSalt)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("credential cipher: %w", err)
	}
	app.Credentials = credentialsapp.NewService(
		credentialsapp.NewVault(st.secrets, cipher),
		credentialsapp.WithLogger(logger),
	)

	app.Limiter = resilience.NewRateLimiter(st.windows, resilience.WithLimit(settings.RateLimit.MaxRequests, settings.RateLimit.Window))
	app.Breaker = resilience.NewBreaker(
		resilience.WithThreshold(settings.Breaker.FailureThreshold, settings.Breaker.ResetTimeout),
		resilience.OnTransition(breakerTransitions(logger, instruments.Meter("internal.platform.resilience"))),
	)
	app.Client, err = fic.New(cfg.BaseURL, app.Credentials,
		fic.WithBreaker(app.Breaker),
		fic.WithRateLimiter(app.Limiter),
		fic.WithDefaultCaller(cfg.CallerID),
		fic.WithLogger(logger),
		fic.WithTracer(instruments.Tracer("internal.clients.http.fic")),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("accounting client: %w", err)
	}

	reconciler := catalogapp.NewReconciler(st.products, catalogremote.NewCatalog(app.Client),
		append(settings.CatalogOptions(), catalogapp.WithLogger(logger))...)
	app.Catalog = catalogobs.New(
		reconciler,
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	engine := ordersapp.NewEngine(st.orders, ordersremote.NewAccounting(app.Client), app.Catalog,
		ordersapp.WithSettings(settings.OrderEngine()),
		ordersapp.WithIdempotencyStore(st.idempotency),
		ordersapp.WithLogger(logger),
	)
	app.Orders = ordersobs.New(
		engine,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	return app, nil
}

// Close releases database handles.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStores(ctx context.Context, logger *slog.Logger) (stores, error) {
	switch a.Config.Store {
	case StorePostgres:
		db, err := a.connectPostgres(ctx)
		if err != nil {
			return stores{}, err
		}
		logger.Info("sync store configured with postgres")
		return postgresStores(db), nil
	case StoreSheet:
		st, err := sheetStores(a.Config.SheetDir, a.Settings)
		if err != nil {
			return stores{}, err
		}
		logger.Info("sync store configured with sheets", slog.String("dir", a.Config.SheetDir))
		return st, nil
	case StoreMemory:
		return memoryStores(), nil
	}
	if a.Config.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory sync store")
		return memoryStores(), nil
	}
	db, err := a.connectPostgres(ctx)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return memoryStores(), nil
	}
	logger.Info("sync store configured with postgres")
	return postgresStores(db), nil
}

func (a *App) connectPostgres(ctx context.Context) (*gorm.DB, error) {
	db, err := platformpostgres.Connect(ctx, a.Config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap postgres connection: %w", err)
	}
	a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func memoryStores() stores {
	return stores{
		secrets:     credmemory.NewSecretStore(),
		windows:     resilience.NewMemoryWindowStore(),
		logs:        synclog.NewMemoryStore(),
		products:    catalogmemory.NewRepository(),
		orders:      ordersmemory.NewRepository(),
		idempotency: ordersmemory.NewIssuedDocuments(),
	}
}

func postgresStores(db *gorm.DB) stores {
	windows := resilience.NewPostgresWindowStore(db)
	return stores{
		secrets:     credpostgres.NewSecretStore(db),
		windows:     windows,
		logs:        synclog.NewPostgresStore(db),
		products:    catalogpostgres.NewRepository(db),
		orders:      orderspostgres.NewRepository(db),
		idempotency: orderspostgres.NewIdempotencyStore(db),
		pgWindows:   windows,
	}
}

// sheetStores keeps the exchange data and the secrets in CSV files under dir.
// Rate windows and idempotency keys live in memory.
func sheetStores(dir string, settings Settings) (stores, error) {
	productCols := settings.Products.Columns
	orderCols := settings.Orders.Columns
	files := []struct {
		name   string
		header []string
	}{
		{"products.csv", productCols.Header()},
		{"orders.csv", orderCols.Header()},
		{"log.csv", synclog.SheetHeader},
		{"secrets.csv", credsheet.Header},
	}
	opened := make([]*sheet.Sheet, len(files))
	for i, f := range files {
		s, err := sheet.Open(filepath.Join(dir, f.name), f.header...)
		if err != nil {
			return stores{}, fmt.Errorf("open %s: %w", f.name, err)
		}
		opened[i] = s
	}
	return stores{
		products:    catalogsheet.NewRepository(opened[0], productCols),
		orders:      orderssheet.NewRepository(opened[1], orderCols),
		logs:        synclog.NewSheetStore(opened[2]),
		secrets:     credsheet.NewSecretStore(opened[3]),
		windows:     resilience.NewMemoryWindowStore(),
		idempotency: ordersmemory.NewIssuedDocuments(),
	}, nil
}

// resolveInstallationID prefers the configured id and otherwise reuses or
// generates one kept in the secret store, so sealed credentials stay readable
// across restarts.
func resolveInstallationID(ctx context.Context, configured string, secrets credentialsports.SecretStore) (string, error) {
	if configured != "" {
		return configured, nil
	}
	id, err := secrets.Get(ctx, InstallationKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, credentialsports.ErrNotFound) {
		return "", fmt.Errorf("load installation id: %w", err)
	}
	id = uuid.NewString()
	if err := secrets.Put(ctx, InstallationKey, id); err != nil {
		return "", fmt.Errorf("store installation id: %w", err)
	}
	return id, nil
}

func breakerTransitions(logger *slog.Logger, meter metric.Meter) func(from, to resilience.State) {
	counter, err := meter.Int64Counter("resilience.breaker.transitions")
	if err != nil {
		logger.Warn("failed to create breaker transition counter", slog.String("error", err.Error()))
	}
	return func(from, to resilience.State) {
		level := slog.LevelInfo
		if to == resilience.StateOpen {
			level = slog.LevelWarn
		}
		logger.LogAttrs(context.Background(), level, "circuit breaker state changed",
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		if counter != nil {
			counter.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("from", string(from)),
				attribute.String("to", string(to)),
			))
		}
	}
}
