package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Apurer/storelink-fic-sync/internal/app/bootstrap"
)

func newCredentialsCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{Use: "credentials", Short: "Manage the Fatture in Cloud API key and company id"}

	var apiKey, companyID string
	var test bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Store credentials; prompts for values not given as flags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if apiKey == "" {
				if apiKey, err = promptSecret(cmd, in, "API key: "); err != nil {
					return err
				}
			}
			if companyID == "" {
				if companyID, err = promptLine(cmd, in, "Company ID: "); err != nil {
					return err
				}
			}
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if test {
					status, err := app.Credentials.SaveAndTest(ctx, apiKey, companyID, app.Client)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved and verified (%s, company %d)\n", status.MaskedKey, status.CompanyID)
					return nil
				}
				status, err := app.Credentials.SaveCredentials(ctx, apiKey, companyID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved (%s, company %d)\n", status.MaskedKey, status.CompanyID)
				return nil
			})
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "API key (prompted without echo when omitted)")
	set.Flags().StringVar(&companyID, "company-id", "", "Company id")
	set.Flags().BoolVar(&test, "test", false, "Verify the credentials against the remote service")

	cmd.AddCommand(set)
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Check the stored credentials against the remote service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Client.TestConnection(ctx); err != nil {
					return fmt.Errorf("connection failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Connection OK")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Credentials.Revoke(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether credentials are configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return printJSON(cmd, app.Credentials.Status(ctx))
			})
		},
	})
	return cmd
}

// promptSecret reads without echo from a terminal and falls back to a plain
// line read when stdin is redirected.
func promptSecret(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		return strings.TrimSpace(string(secret)), err
	}
	return readLine(in)
}

func promptLine(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
