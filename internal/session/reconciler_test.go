package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertrade/vendorgate/internal/log"
	"github.com/evertrade/vendorgate/internal/portal"
	"github.com/evertrade/vendorgate/internal/store"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: log.LevelError, Format: log.FormatText, Output: nopWriter{}})
}

// whoamiAbort, scripted as a whoami answer, kills the connection instead
// of responding, so the caller sees a transport error.
const whoamiAbort = "\x00abort"

// identityScript is a scripted identity service for reconciliation tests.
type identityScript struct {
	*httptest.Server

	mu          sync.Mutex
	whoami      []string // consumed per call, last answer repeats
	whoamiCalls int
	userLookups int
	loginOK     bool
}

func newIdentityScript(t *testing.T, whoami ...string) *identityScript {
	f := &identityScript{whoami: whoami, loginOK: true}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/csrf-token":
			json.NewEncoder(w).Encode(map[string]string{"message": "tok"})

		case r.URL.Path == "/whoami":
			idx := f.whoamiCalls
			f.whoamiCalls++
			if idx >= len(f.whoami) {
				idx = len(f.whoami) - 1
			}
			if f.whoami[idx] == whoamiAbort {
				// The deferred unlock still runs during unwinding.
				panic(http.ErrAbortHandler)
			}
			json.NewEncoder(w).Encode(map[string]string{"message": f.whoami[idx]})

		case r.URL.Path == "/login":
			msg := "Invalid login credentials"
			if f.loginOK {
				msg = "Logged In"
			}
			json.NewEncoder(w).Encode(map[string]string{"message": msg, "home_page": "/app"})

		case r.URL.Path == "/logout":
			w.WriteHeader(http.StatusOK)

		case len(r.URL.Path) > len("/user-lookup/") && r.URL.Path[:len("/user-lookup/")] == "/user-lookup/":
			f.userLookups++
			json.NewEncoder(w).Encode(map[string]string{"full_name": "A B"})

		case r.URL.Path == "/company-lookup":
			json.NewEncoder(w).Encode(map[string]string{"supplier_name": "Acme", "name": "SUP-0001"})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *identityScript) counts() (whoami, lookups int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whoamiCalls, f.userLookups
}

// newRig wires a reconciler against baseURL with test-friendly delays.
func newRig(t *testing.T, baseURL string) (*Reconciler, *Store, store.KV) {
	kv, err := store.OpenFile(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return newRigWithKV(baseURL, kv)
}

func newRigWithKV(baseURL string, kv store.KV) (*Reconciler, *Store, store.KV) {
	logger := quietLogger()
	client := portal.NewClient(baseURL, logger)
	tokens := portal.NewTokenManager(client)
	exec := portal.NewExecutor(client, tokens, logger)
	gateway := portal.NewGateway(client, exec, tokens, logger).WithVerification(3, 0)
	resolver := portal.NewResolver(exec, logger)

	sessions := NewStore(kv, logger)
	reconciler := NewReconciler(gateway, resolver, sessions, logger).WithRecheckDelay(0)
	return reconciler, sessions, kv
}

func seedSnapshot(t *testing.T, kv store.KV, email string) {
	raw, err := json.Marshal(authenticated(email))
	require.NoError(t, err)
	require.NoError(t, kv.Set(store.KeyUser, string(raw)))
	require.NoError(t, kv.Set(store.KeyToken, "portal-session-test"))
}

func TestInitializeAdoptsRemoteIdentity(t *testing.T) {
	f := newIdentityScript(t, "a@b.com")
	reconciler, sessions, _ := newRig(t, f.URL)

	sess := reconciler.Initialize(context.Background())

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "a@b.com", sess.Principal.Email)
	assert.Equal(t, "A B", sess.Principal.DisplayName)
	assert.Equal(t, "Acme", sess.Principal.Company)
	assert.Equal(t, StateConfirmed, reconciler.State())
	assert.True(t, sessions.IsAuthenticated())
}

func TestInitializeIdempotent(t *testing.T) {
	f := newIdentityScript(t, "a@b.com")
	reconciler, sessions, _ := newRig(t, f.URL)

	first := reconciler.Initialize(context.Background())
	second := reconciler.Initialize(context.Background())

	assert.Equal(t, first.Principal, second.Principal, "unchanged remote identity yields the same session")
	assert.Equal(t, first.Token, second.Token, "matching identity is confirmed without a new commit")

	_, lookups := f.counts()
	assert.Equal(t, 1, lookups, "no redundant profile re-resolution")
	assert.Equal(t, StateConfirmed, reconciler.State())
	_ = sessions
}

func TestInitializeReResolvesDifferingIdentity(t *testing.T) {
	f := newIdentityScript(t, "other@b.com")
	reconciler, sessions, kv := newRig(t, f.URL)
	seedSnapshot(t, kv, "a@b.com")

	reconciler.Initialize(context.Background())

	sess := sessions.Current()
	require.True(t, sess.IsAuthenticated())
	assert.Equal(t, "other@b.com", sess.Principal.Email, "remote identity wins over the cached one")

	_, lookups := f.counts()
	assert.Equal(t, 1, lookups)
}

func TestNoFalseEvictionOnTransportFailure(t *testing.T) {
	reconciler, sessions, kv := newRig(t, "http://127.0.0.1:1")
	seedSnapshot(t, kv, "a@b.com")

	reconciler.Initialize(context.Background())

	assert.True(t, sessions.IsAuthenticated(), "unreachable service must never evict a cached session")
	assert.Equal(t, StateUnreachable, reconciler.State())
}

func TestGuestDebounceAbsorbsTransientGlitch(t *testing.T) {
	f := newIdentityScript(t, "Guest", "a@b.com")
	reconciler, sessions, kv := newRig(t, f.URL)
	seedSnapshot(t, kv, "a@b.com")

	reconciler.Initialize(context.Background())

	assert.True(t, sessions.IsAuthenticated(), "a single Guest answer must not clear the session")
	assert.Equal(t, StateConfirmed, reconciler.State())

	whoami, _ := f.counts()
	assert.Equal(t, 2, whoami, "exactly one re-check")
}

func TestGuestConfirmationClearsSession(t *testing.T) {
	f := newIdentityScript(t, "Guest", "Guest")
	reconciler, sessions, kv := newRig(t, f.URL)
	seedSnapshot(t, kv, "a@b.com")

	expired := false
	reconciler.OnSessionExpired(func() { expired = true })

	reconciler.Initialize(context.Background())

	assert.False(t, sessions.IsAuthenticated())
	assert.Equal(t, StateDivergentGuest, reconciler.State())
	assert.True(t, expired, "expiry hook fires after confirmed eviction")

	_, ok, err := kv.Get(store.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok, "store keys removed")
	_, ok, err = kv.Get(store.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuestWithEmptyLocalStateIsAgreement(t *testing.T) {
	f := newIdentityScript(t, "Guest")
	reconciler, sessions, _ := newRig(t, f.URL)

	reconciler.Initialize(context.Background())

	assert.False(t, sessions.IsAuthenticated())
	assert.Equal(t, StateConfirmed, reconciler.State())

	whoami, _ := f.counts()
	assert.Equal(t, 1, whoami, "no debounce when nothing diverged")
}

func TestRecheckUnreachableTrustsLocalState(t *testing.T) {
	// Guest on the first whoami, then the connection dies before the
	// debounce re-check can be answered.
	f := newIdentityScript(t, "Guest", whoamiAbort)
	reconciler, sessions, kv := newRig(t, f.URL)
	seedSnapshot(t, kv, "a@b.com")

	reconciler.Initialize(context.Background())

	assert.True(t, sessions.IsAuthenticated(), "unreachable re-check must trust local state")
	assert.Equal(t, StateUnreachable, reconciler.State())
}

func TestLoginEndToEnd(t *testing.T) {
	f := newIdentityScript(t, "a@b.com")
	reconciler, sessions, _ := newRig(t, f.URL)

	result, err := reconciler.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.True(t, result.Verified)
	assert.Equal(t, "a@b.com", result.VerifiedEmail)

	sess := sessions.Current()
	require.True(t, sess.IsAuthenticated())
	assert.Equal(t, "A B", sess.Principal.DisplayName)
	assert.Equal(t, "Acme", sess.Principal.Company)
	assert.Equal(t, "SUP-0001", sess.Principal.LinkedRecordID)
	assert.Equal(t, StateConfirmed, reconciler.State())
}

func TestLoginRejectedLeavesStateAlone(t *testing.T) {
	f := newIdentityScript(t, "Guest")
	f.loginOK = false
	reconciler, sessions, _ := newRig(t, f.URL)

	result, err := reconciler.Login(context.Background(), "a@b.com", "bad")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.False(t, sessions.IsAuthenticated())
}

func TestLoginOptimisticWhenVerificationInconclusive(t *testing.T) {
	f := newIdentityScript(t, "Guest") // whoami never confirms
	reconciler, sessions, _ := newRig(t, f.URL)

	result, err := reconciler.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.True(t, result.OK, "inconclusive verification still logs in optimistically")
	assert.False(t, result.Verified)

	sess := sessions.Current()
	require.True(t, sess.IsAuthenticated())
	assert.Equal(t, "a@b.com", sess.Principal.Email, "principal built from the submitted email")
}

func TestLogoutAlwaysClears(t *testing.T) {
	f := newIdentityScript(t, "a@b.com")
	reconciler, sessions, _ := newRig(t, f.URL)
	result, err := reconciler.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.True(t, result.OK)

	reconciler.Logout(context.Background())
	assert.False(t, sessions.IsAuthenticated())
	assert.Equal(t, StateEmpty, reconciler.State())

	// Even when the service is gone.
	dead, deadSessions, deadKV := newRig(t, "http://127.0.0.1:1")
	seedSnapshot(t, deadKV, "a@b.com")
	deadSessions.Hydrate()
	dead.Logout(context.Background())
	assert.False(t, deadSessions.IsAuthenticated())
}
