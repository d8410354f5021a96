package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
)

func newLogsCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "logs", Short: "Inspect the sync log"}
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the newest log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.Logs.List(ctx, limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %s", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
					if e.Data != "" {
						fmt.Fprintf(cmd.OutOrStdout(), " %s", e.Data)
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum entries, 0 for all")
	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every log entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Logs.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Log cleared")
				return nil
			})
		},
	})
	return cmd
}

func newRateLimitCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "ratelimit", Short: "Inspect and maintain rate limit windows"}
	cmd.AddCommand(&cobra.Command{
		Use:   "status <caller>",
		Short: "Show the requests left in a caller's window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				remaining, err := app.Limiter.Remaining(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d requests left\n", args[0], remaining)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset <caller>",
		Short: "Clear a caller's window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Limiter.Reset(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Window for %s cleared\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop expired windows from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if app.Windows == nil {
					return fmt.Errorf("purge requires the postgres store")
				}
				purged, err := app.Windows.PurgeExpired(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired windows\n", purged)
				return nil
			})
		},
	})
	return cmd
}

func newConfigCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Show the effective sync settings"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := bootstrap.LoadSettings(r.settingsPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Report every problem with the stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				problems := app.Credentials.ValidateConfig(ctx)
				if len(problems) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
					return nil
				}
				for _, p := range problems {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", p)
				}
				return fmt.Errorf("%d configuration problems", len(problems))
			})
		},
	})
	return cmd
}
