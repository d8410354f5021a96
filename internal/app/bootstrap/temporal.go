package bootstrap

import (
	"errors"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	ordersworkflows "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/storelink-fic-sync/internal/platform/observability"
)

// ErrTemporalDisabled is returned by DialTemporal when TEMPORAL_DISABLED is set.
var ErrTemporalDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// DialTemporal connects a traced Temporal client.
func DialTemporal(cfg Config, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, ErrTemporalDisabled
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(component)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// OrderWorkflows returns durable order workflows when Temporal is reachable and
// inline ones otherwise. The returned cleanup closes the client.
func OrderWorkflows(app *App, instruments *platformobservability.Instruments) (ordersports.Workflows, func()) {
	temporalClient, err := DialTemporal(app.Config, instruments, "temporal-client")
	if err != nil {
		app.Logger.Warn("Temporal workflows unavailable, running order sync inline", slog.String("error", err.Error()))
		return ordersworkflows.NewInlineOrderWorkflows(app.Orders), func() {}
	}
	app.Logger.Info("Temporal workflows enabled", slog.String("namespace", app.Config.TemporalNamespace))
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient, app.Settings.Pause), temporalClient.Close
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
