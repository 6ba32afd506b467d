// Package cmd wires the CLI commands to the session layer.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vendorgate",
	Short: "Supplier portal session manager",
	Long: `vendorgate keeps a CSRF-protected session with the supplier portal's
identity service. It logs you in, keeps the local session reconciled with
what the server reports, and resolves your supplier profile.

The session survives restarts: it is persisted locally and re-verified
against the identity service on demand or on an interval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.vendorgate/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}
