package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/tui"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the local session",
	Long: `Log out from the supplier portal.

The server-side logout is best effort; the local session is cleared
either way.

Examples:
  vendorgate logout
  vendorgate logout --yes`,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sess := app.sessions.Current()
	if !sess.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirmed, err := tui.ConfirmLogout(sess.Principal.Email)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	app.reconciler.Logout(cmd.Context())
	fmt.Println("Logged out.")

	return nil
}
