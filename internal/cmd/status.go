package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session status",
	Long: `Show the locally persisted session without contacting the identity
service. Use 'vendorgate sync' to re-verify against the server.

Examples:
  vendorgate status
  vendorgate status --json`,
	RunE: runStatus,
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(10)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// statusReport is the --json shape of the local session
type statusReport struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Company       string `json:"company,omitempty"`
	StoreBackend  string `json:"store_backend"`
	StorePath     string `json:"store_path"`
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sess := app.sessions.Current()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		report := statusReport{
			Authenticated: sess.IsAuthenticated(),
			StoreBackend:  app.cfg.StoreBackend,
			StorePath:     app.cfg.ResolvedStorePath(),
		}
		if sess.Principal != nil {
			report.Email = sess.Principal.Email
			report.DisplayName = sess.Principal.DisplayName
			report.Company = sess.Principal.Company
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	renderStatus(sess, app)
	return nil
}

func renderStatus(sess session.Session, app *app) {
	if !sess.IsAuthenticated() {
		fmt.Println(dimStyle.Render("Not logged in."))
		fmt.Println(dimStyle.Render("Run 'vendorgate login' to sign in."))
		return
	}

	fmt.Println(labelStyle.Render("Status") + okStyle.Render("logged in"))
	fmt.Println(labelStyle.Render("Email") + sess.Principal.Email)
	if sess.Principal.DisplayName != "" {
		fmt.Println(labelStyle.Render("Name") + sess.Principal.DisplayName)
	}
	if sess.Principal.Company != "" {
		fmt.Println(labelStyle.Render("Company") + sess.Principal.Company)
	}
	fmt.Println(labelStyle.Render("Store") + dimStyle.Render(
		app.cfg.StoreBackend+" "+app.cfg.ResolvedStorePath()))
}
