// Package cli is the operator command line for the sync engine.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
)

// Opener builds the application for one command invocation. settingsPath
// overrides SYNC_CONFIG_FILE when non-empty.
type Opener func(ctx context.Context, settingsPath string) (*bootstrap.App, error)

// OpenFromEnv reads the environment configuration and wires the application
// without exporting telemetry.
func OpenFromEnv(ctx context.Context, settingsPath string) (*bootstrap.App, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	if settingsPath != "" {
		cfg.SettingsFile = settingsPath
	}
	settings, err := bootstrap.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, settings, nil)
}

type root struct {
	open         Opener
	settingsPath string
	caller       string
}

func NewRootCmd(version string, open Opener) *cobra.Command {
	r := &root{open: open}
	cmd := &cobra.Command{
		Use:           "ficsync",
		Short:         "Synchronise the store sheets with Fatture in Cloud",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&r.settingsPath, "config", os.Getenv("SYNC_CONFIG_FILE"), "Sync settings YAML file")
	cmd.PersistentFlags().StringVar(&r.caller, "caller", "", "Rate limit window to charge (defaults to FIC_CALLER_ID)")

	cmd.AddCommand(newCredentialsCmd(r))
	cmd.AddCommand(newSyncCmd(r))
	cmd.AddCommand(newOrdersCmd(r))
	cmd.AddCommand(newProductsCmd(r))
	cmd.AddCommand(newLogsCmd(r))
	cmd.AddCommand(newRateLimitCmd(r))
	cmd.AddCommand(newConfigCmd(r))
	cmd.AddCommand(newRunCmd(r))
	return cmd
}

// withApp opens the application, scopes the context to the caller flag and
// runs fn.
func (r *root) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := r.open(ctx, r.settingsPath)
	if err != nil {
		return err
	}
	defer app.Close()
	if r.caller != "" {
		ctx = fic.WithCaller(ctx, r.caller)
	}
	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseRow(raw string) (int64, error) {
	row, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || row <= 0 {
		return 0, fmt.Errorf("row must be a positive integer, got %q", raw)
	}
	return row, nil
}
