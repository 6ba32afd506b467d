package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/portal"
	"github.com/evertrade/vendorgate/internal/tui"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new vendor account",
	Long: `Register a new vendor account with the supplier portal.

Without flags this opens an interactive form. Registration does not log
you in: the portal reviews new vendors before activating them.

Examples:
  vendorgate register
  vendorgate register --company "Acme Ltd" --email user@acme.com \
      --contact "A Person" --phone 5550100 --password mypass`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().String("company", "", "company name")
	registerCmd.Flags().String("contact", "", "contact person")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("phone", "", "phone number")
	registerCmd.Flags().String("gst", "", "GST number (optional)")
	registerCmd.Flags().String("password", "", "password")

	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	reg := portal.Registration{}
	reg.Company, _ = cmd.Flags().GetString("company")
	reg.Contact, _ = cmd.Flags().GetString("contact")
	reg.Email, _ = cmd.Flags().GetString("email")
	reg.Phone, _ = cmd.Flags().GetString("phone")
	reg.GST, _ = cmd.Flags().GetString("gst")
	reg.Password, _ = cmd.Flags().GetString("password")

	if reg.Company == "" && reg.Email == "" {
		var err error
		reg, err = tui.PromptForRegistration()
		if err != nil {
			return err
		}
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var message string
	spinErr := tui.Spin("Submitting registration...", func() error {
		var regErr error
		message, regErr = app.reconciler.Signup(cmd.Context(), reg)
		return regErr
	})
	if spinErr != nil {
		return spinErr
	}

	if message != "" {
		fmt.Println(message)
	} else {
		fmt.Println("Registration submitted.")
	}
	fmt.Println("You can log in once the portal activates your account.")

	return nil
}
