package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
)

func newSyncCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Run a synchronisation pass"}
	cmd.AddCommand(&cobra.Command{
		Use:   "products",
		Short: "Import the remote product catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Catalog.Reconcile(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "orders",
		Short: "Import every order that is new, pending or failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Orders.ProcessPending(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	})
	return cmd
}

func newOrdersCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Work with single orders"}
	cmd.AddCommand(&cobra.Command{
		Use:   "notify <row>",
		Short: "Handle a newly appended order row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				processed, err := app.Orders.HandleNewRow(ctx, row)
				if err != nil {
					return err
				}
				if !processed {
					fmt.Fprintf(cmd.OutOrStdout(), "Row %d skipped: order already has a sync status\n", row)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Row %d processed\n", row)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sync <row>",
		Short: "Import one order regardless of its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				order, err := app.Orders.ProcessOrder(ctx, row)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Row %d: %s", row, order.Sync.Status)
				if order.Sync.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " (%s)", order.Sync.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List rows the next batch would process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				rows, err := app.Orders.PendingRows(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			})
		},
	})
	return cmd
}

func newProductsCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Work with single products"}
	cmd.AddCommand(&cobra.Command{
		Use:   "publish <row>",
		Short: "Create or update the remote product for a local row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				product, err := app.Catalog.Publish(ctx, row)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Row %d published as remote product %d\n", row, product.RemoteID)
				return nil
			})
		},
	})
	return cmd
}
