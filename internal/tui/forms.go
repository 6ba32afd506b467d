// Package tui holds the interactive bits of the CLI: credential forms
// and the verification spinner.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/evertrade/vendorgate/internal/portal"
)

// Credentials is what the login form collects
type Credentials struct {
	Email    string
	Password string
}

// PromptForCredentials runs the interactive login form
func PromptForCredentials() (Credentials, error) {
	var creds Credentials

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@company.com").
			Validate(validateEmail).
			Value(&creds.Email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(validateRequired("password")).
			Value(&creds.Password),
	))

	if err := form.Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}

	return creds, nil
}

// PromptForRegistration runs the interactive vendor signup form
func PromptForRegistration() (portal.Registration, error) {
	var reg portal.Registration

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Company name").
				Validate(validateRequired("company name")).
				Value(&reg.Company),
			huh.NewInput().
				Title("Contact person").
				Validate(validateRequired("contact person")).
				Value(&reg.Contact),
			huh.NewInput().
				Title("Email").
				Placeholder("you@company.com").
				Validate(validateEmail).
				Value(&reg.Email),
			huh.NewInput().
				Title("Phone").
				Validate(validateRequired("phone")).
				Value(&reg.Phone),
			huh.NewInput().
				Title("GST number (optional)").
				Value(&reg.GST),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(validateRequired("password")).
				Value(&reg.Password),
		),
	)

	if err := form.Run(); err != nil {
		return portal.Registration{}, fmt.Errorf("prompt failed: %w", err)
	}

	return reg, nil
}

// ConfirmLogout asks before dropping a session that is still verified
func ConfirmLogout(email string) (bool, error) {
	confirmed := true

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Log out %s?", email)).
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("that does not look like an email address")
	}
	return nil
}
