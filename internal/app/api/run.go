package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	syncserver "github.com/Apurer/storelink-fic-sync/go"
	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
	platformobservability "github.com/Apurer/storelink-fic-sync/internal/platform/observability"
)

const serviceName = "storelink-fic-sync-api"

// Run boots the sync HTTP API with observability, stores, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	settings, err := bootstrap.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()

	app, err := bootstrap.New(ctx, cfg, settings, instruments)
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger

	workflows, closeWorkflows := bootstrap.OrderWorkflows(app, instruments)
	defer closeWorkflows()

	handlers := syncserver.ApiHandleFunctions{
		CredentialsAPI: syncserver.NewCredentialsAPI(app.Credentials, app.Client),
		SyncAPI:        syncserver.NewSyncAPI(app.Catalog, app.Orders, workflows),
		ResilienceAPI:  syncserver.NewResilienceAPI(app.Breaker, app.Limiter).WithCounters(instruments),
		LogsAPI:        syncserver.NewLogsAPI(app.Logs),
	}

	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	router := syncserver.NewRouterWithGinEngine(engine, handlers)
	addr := cfg.Addr()
	logger.Info("sync API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("sync API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}
