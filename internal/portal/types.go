// Package portal is the HTTP layer talking to the identity service: a
// cookie-carrying base client, the CSRF token manager, the retrying
// request executor, the identity gateway (login, signup, logout, whoami)
// and the profile resolver.
package portal

// Identity is the answer to "who am I" from the identity service.
//
// Three outcomes are possible and callers must handle all of them:
// an authenticated identity, the Guest sentinel ("asked and got no one"),
// and an error from Whoami ("could not ask"). Guest is a value, never nil.
type Identity struct {
	// Email is the authenticated principal's email; empty for Guest.
	Email string
}

// Guest is the sentinel identity meaning no authenticated session.
var Guest = Identity{}

// IsGuest reports whether the identity is the unauthenticated sentinel
func (id Identity) IsGuest() bool {
	return id.Email == ""
}

// Principal is a resolved user identity plus display attributes.
// It is immutable once constructed and replaced wholesale on re-resolution.
type Principal struct {
	// Email is the bare identity the principal was resolved from
	Email string `json:"email"`

	// DisplayName is the canonical display name, or the email local part
	// when the lookup failed
	DisplayName string `json:"display_name"`

	// Company is the linked business entity name, or DefaultCompany
	Company string `json:"company"`

	// LinkedRecordID is the id of the linked supplier record; empty when
	// the identity has no linked record
	LinkedRecordID string `json:"linked_record_id,omitempty"`
}

// DefaultCompany is the placeholder used when no business entity is linked
const DefaultCompany = "Vendor"

// LoginResult is the outcome of a login attempt.
type LoginResult struct {
	// OK is false only when the login endpoint rejected the credentials
	OK bool

	// HomePage is the landing page the service suggested, if any
	HomePage string

	// Verified is true when a post-login whoami confirmed the session.
	// When false the caller proceeds optimistically with the submitted
	// email; the session is usable but unconfirmed.
	Verified bool

	// VerifiedEmail is the identity whoami reported; empty unless Verified
	VerifiedEmail string
}

// Registration is the payload for vendor signup.
type Registration struct {
	Company  string `json:"company"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Phone    string `json:"phone"`
	GST      string `json:"gst,omitempty"`
	Password string `json:"password"`
}

// Wire shapes of the identity service.

type loginPayload struct {
	Usr string `json:"usr"`
	Pwd string `json:"pwd"`
}

type loginAck struct {
	Message  string `json:"message"`
	HomePage string `json:"home_page"`
}

// messageEnvelope covers /whoami and /csrf-token, which both answer
// with a bare {"message": ...}.
type messageEnvelope struct {
	Message string `json:"message"`
}

type registrationEnvelope struct {
	Message struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"message"`
}

type userLookup struct {
	FullName string `json:"full_name"`
}

type companyLookup struct {
	SupplierName string `json:"supplier_name"`
	Name         string `json:"name"`
}
