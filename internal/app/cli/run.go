package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
)

func newRunCmd(r *root) *cobra.Command {
	var interval time.Duration
	var once bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync products and pending orders every interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				every := interval
				if every <= 0 {
					every = app.Settings.SyncInterval
				}
				if once {
					return runCycle(ctx, app)
				}
				return schedule(ctx, app, every)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between passes (defaults to sync_interval)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	return cmd
}

// schedule runs a pass immediately and then once per interval. Pass failures
// are logged and do not stop the loop.
func schedule(ctx context.Context, app *bootstrap.App, every time.Duration) error {
	app.Logger.Info("inline scheduler started", slog.String("every", every.String()))
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if err := runCycle(ctx, app); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			app.Logger.Error("sync pass failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			app.Logger.Info("inline scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// runCycle refreshes the catalog and then imports pending orders. Orders are
// still attempted when the catalog refresh fails.
func runCycle(ctx context.Context, app *bootstrap.App) error {
	var errs []error
	if result, err := app.Catalog.Reconcile(ctx); err != nil {
		errs = append(errs, err)
	} else {
		app.Logger.Info("catalog refreshed", slog.Int("inserted", result.Inserted), slog.Int("updated", result.Updated))
	}
	if result, err := app.Orders.ProcessPending(ctx); err != nil {
		errs = append(errs, err)
	} else {
		app.Logger.Info("pending orders processed", slog.Int("imported", result.Imported), slog.Int("failed", result.Failed))
	}
	return errors.Join(errs...)
}
