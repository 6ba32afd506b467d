// Package store implements the durable client store: a small synchronous
// key-value store that persists the last-known session across runs.
//
// The store performs no validation of its contents. A snapshot is only
// ever written by a successful login or reconciliation; staleness is the
// reconciler's problem, not the store's.
package store

// Well-known keys used by the session layer.
const (
	// KeyUser holds the serialized principal+token snapshot JSON
	KeyUser = "auth_user"

	// KeyToken holds the opaque session marker string
	KeyToken = "auth_token"
)

// KV is a synchronous key-value store surviving process restarts.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set writes key to value, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any underlying resources.
	Close() error
}
