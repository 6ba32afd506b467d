package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeCredentialsRejected ErrorCode = "AUTH-001"
	ErrCodeSessionExpired      ErrorCode = "AUTH-002"
	ErrCodeNotAuthenticated    ErrorCode = "AUTH-003"

	// CSRF errors (CSRF-001 to CSRF-099)
	ErrCodeCsrfFetchFailed ErrorCode = "CSRF-001"
	ErrCodeCsrfRejected    ErrorCode = "CSRF-002"

	// Registration errors (REG-001 to REG-099)
	ErrCodeRegistrationRejected ErrorCode = "REG-001"

	// Transport errors (NET-001 to NET-099)
	ErrCodeServiceUnreachable ErrorCode = "NET-001"
	ErrCodeBadResponse        ErrorCode = "NET-002"

	// Store errors (STORE-001 to STORE-099)
	ErrCodeStoreOpenFailed  ErrorCode = "STORE-001"
	ErrCodeStoreWriteFailed ErrorCode = "STORE-002"
	ErrCodeStoreReadFailed  ErrorCode = "STORE-003"
	ErrCodeStoreSealFailed  ErrorCode = "STORE-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid    ErrorCode = "CONFIG-001"
	ErrCodeConfigReadFailed ErrorCode = "CONFIG-002"
)

// PortalError represents an enhanced error with code and cause
type PortalError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *PortalError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// New creates a new PortalError
func New(code ErrorCode, message string) *PortalError {
	return &PortalError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PortalError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PortalError {
	return &PortalError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the error code carried by err, or "" if err is not a PortalError
func CodeOf(err error) ErrorCode {
	var pe *PortalError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsTransport reports whether err represents a transport-level failure:
// the identity service could not be reached or answered garbage. Callers
// treat these as non-fatal and fall back to locally cached state.
func IsTransport(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeServiceUnreachable || code == ErrCodeBadResponse
}

// IsRegistration reports whether err is a registration rejection carrying
// a server-supplied message for display.
func IsRegistration(err error) bool {
	return CodeOf(err) == ErrCodeRegistrationRejected
}

// NewRegistrationError creates a registration rejection with the server message
func NewRegistrationError(serverMessage string) *PortalError {
	if serverMessage == "" {
		serverMessage = "registration failed"
	}
	return New(ErrCodeRegistrationRejected, serverMessage)
}

// NewUnreachableError creates a transport failure error
func NewUnreachableError(op string, cause error) *PortalError {
	return Wrap(ErrCodeServiceUnreachable, fmt.Sprintf("identity service unreachable during %s", op), cause)
}
