// Package session holds the mutable client-side session state and the
// reconciler that keeps it honest against the identity service.
package session

import (
	"github.com/evertrade/vendorgate/internal/portal"
)

// Session is the single source of session truth on the client.
//
// The value is always replaced as a whole, never field-mutated, so any
// racing writers yield a fully self-consistent (if momentarily wrong)
// snapshot instead of a torn one.
type Session struct {
	// Principal is the resolved user, nil when logged out
	Principal *portal.Principal `json:"principal"`

	// Token is a client-local liveness marker, not a credential: the real
	// credential is an HTTP-only cookie this code never reads. Only its
	// presence matters.
	Token string `json:"token"`
}

// IsAuthenticated reports whether the session carries both a principal
// and a token marker.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.Principal != nil
}

// Empty returns the logged-out session
func Empty() Session {
	return Session{}
}

// State is where the reconciler stands in the verification lifecycle
type State int

const (
	// StateUnknown means nothing has been hydrated or verified yet
	StateUnknown State = iota
	// StateHydrated means a cached snapshot was loaded, optimistically trusted
	StateHydrated
	// StateEmpty means no cached snapshot existed
	StateEmpty
	// StateVerifying means a remote check is in flight
	StateVerifying
	// StateConfirmed means local and remote agree
	StateConfirmed
	// StateDivergentGuest means the service confirmed twice that no session
	// exists while local state claimed one; the session was cleared
	StateDivergentGuest
	// StateUnreachable means the service could not be asked; local state
	// is trusted as-is
	StateUnreachable
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateHydrated:
		return "hydrated"
	case StateEmpty:
		return "empty"
	case StateVerifying:
		return "verifying"
	case StateConfirmed:
		return "confirmed"
	case StateDivergentGuest:
		return "divergent-guest"
	case StateUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}
