package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/session"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local session with the identity service",
	Long: `Re-verify the locally persisted session against the identity
service. The server's answer wins: a session the server no longer
recognizes is cleared, and a session the server reports that the local
store does not have is adopted.

A transport failure leaves the local session untouched.

With --watch the reconciliation repeats on the configured interval
until interrupted.

Examples:
  vendorgate sync
  vendorgate sync --watch`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("watch", false, "keep re-verifying on the configured interval")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	app.reconciler.OnSessionExpired(func() {
		fmt.Println("Session expired on the server; local session cleared.")
	})

	sess := app.reconciler.Initialize(ctx)
	printSyncResult(sess, app.reconciler.State())

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		fmt.Printf("Watching every %s. Press Ctrl+C to stop.\n", app.cfg.WatchInterval)
		app.reconciler.Watch(ctx, app.cfg.WatchInterval)
	}

	return nil
}

func printSyncResult(sess session.Session, state session.State) {
	switch state {
	case session.StateUnreachable:
		fmt.Println("Identity service unreachable; keeping the local session.")
	case session.StateDivergentGuest:
		fmt.Println("Server reports Guest; local session cleared.")
	}

	if sess.IsAuthenticated() {
		fmt.Printf("Session confirmed for %s\n", sess.Principal.Email)
	} else {
		fmt.Println("No active session.")
	}
}
