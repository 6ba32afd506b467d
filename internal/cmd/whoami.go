package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Ask the identity service who it thinks you are",
	Long: `Query the identity service for the account behind the current
session cookie. Prints "Guest" when the server does not recognize the
session.

Examples:
  vendorgate whoami`,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := app.gateway.Whoami(cmd.Context())
	if err != nil {
		return err
	}

	if id.IsGuest() {
		fmt.Println("Guest")
		return nil
	}

	fmt.Println(id.Email)
	return nil
}
