// Package exitcode centralizes the CLI exit codes so scripts can branch
// on what actually went wrong.
package exitcode

import (
	"os"

	"github.com/evertrade/vendorgate/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates rejected credentials or a lost session
	AuthError = 3

	// RegistrationFailed indicates the identity service rejected a signup
	RegistrationFailed = 4

	// NetworkError indicates the identity service could not be reached
	NetworkError = 5

	// ConfigError indicates a broken configuration
	ConfigError = 6

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code by its portal error code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeCredentialsRejected, errors.ErrCodeSessionExpired, errors.ErrCodeNotAuthenticated:
		return AuthError
	case errors.ErrCodeRegistrationRejected:
		return RegistrationFailed
	case errors.ErrCodeServiceUnreachable, errors.ErrCodeBadResponse:
		return NetworkError
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigReadFailed:
		return ConfigError
	default:
		return GeneralError
	}
}
