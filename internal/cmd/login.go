package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/errors"
	"github.com/evertrade/vendorgate/internal/portal"
	"github.com/evertrade/vendorgate/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the supplier portal",
	Long: `Log in to the supplier portal with your email and password.

Without flags this opens an interactive prompt. After the credentials
are accepted the session is verified against the identity service and
your supplier profile is resolved and persisted.

Examples:
  vendorgate login
  vendorgate login --email user@example.com --password mypass`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().String("email", "", "email address")
	loginCmd.Flags().String("password", "", "password")

	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if email == "" || password == "" {
		creds, err := tui.PromptForCredentials()
		if err != nil {
			return err
		}
		email, password = creds.Email, creds.Password
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	var result *portal.LoginResult
	spinErr := tui.Spin("Signing in...", func() error {
		var loginErr error
		result, loginErr = app.reconciler.Login(ctx, email, password)
		return loginErr
	})
	if spinErr != nil {
		return spinErr
	}
	if !result.OK {
		return errors.New(errors.ErrCodeCredentialsRejected, "invalid email or password")
	}

	sess := app.sessions.Current()
	if sess.Principal != nil {
		fmt.Printf("Logged in as %s (%s)\n", sess.Principal.DisplayName, sess.Principal.Email)
		if sess.Principal.Company != "" {
			fmt.Printf("Company: %s\n", sess.Principal.Company)
		}
	} else {
		fmt.Println("Logged in.")
	}
	if !result.Verified {
		fmt.Println("Note: the server has not confirmed the session yet; it will be re-verified on the next sync.")
	}

	return nil
}
