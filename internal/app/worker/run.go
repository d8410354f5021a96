// Package worker runs the Temporal worker that executes order sync workflows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
	ordersworkflows "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/workflows"
	platformobservability "github.com/Apurer/storelink-fic-sync/internal/platform/observability"
	orderactivities "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/workflows/orders"
)

const serviceName = "storelink-fic-sync-worker"

// Run connects to Temporal, registers the order workflows, installs the
// periodic sync schedule and blocks until interrupted.
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

	temporalClient, err := bootstrap.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return err
	}
	defer temporalClient.Close()

	activities := orderactivities.NewActivities(app.Orders, app.OrderRepo)
	w := worker.New(temporalClient, orderworkflows.OrderSyncTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.PendingBatchWorkflow, workflow.RegisterOptions{Name: orderworkflows.PendingBatchWorkflowName})
	w.RegisterWorkflowWithOptions(orderworkflows.ProcessOrderWorkflow, workflow.RegisterOptions{Name: orderworkflows.ProcessOrderWorkflowName})
	w.RegisterWorkflowWithOptions(orderworkflows.NewRowWorkflow, workflow.RegisterOptions{Name: orderworkflows.NewRowWorkflowName})
	w.RegisterActivityWithOptions(activities.PendingRows, activity.RegisterOptions{Name: orderactivities.PendingRowsActivityName})
	w.RegisterActivityWithOptions(activities.ProcessOrder, activity.RegisterOptions{Name: orderactivities.ProcessOrderActivityName})
	w.RegisterActivityWithOptions(activities.HandleNewRow, activity.RegisterOptions{Name: orderactivities.HandleNewRowActivityName})

	schedule := ordersworkflows.NewTemporalOrderWorkflows(temporalClient, settings.Pause)
	if err := schedule.EnsureSchedule(ctx, settings.SyncInterval); err != nil {
		logger.Error("failed to install order sync schedule", slog.String("error", err.Error()))
		return err
	}
	logger.Info("order sync scheduled", slog.String("every", settings.SyncInterval.String()))

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderSyncTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Temporal worker stopped")
	return nil
}
