package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertrade/vendorgate/internal/errors"
)

// fakeIdentity is a scripted identity service. whoamiScript is consumed
// one answer per /whoami call; the last answer repeats once exhausted.
type fakeIdentity struct {
	*httptest.Server

	mu           sync.Mutex
	whoamiScript []string
	whoamiCalls  int
	loginMessage string
	loginStatus  int
	regStatus    string
	regMessage   string
	logoutCalls  int
}

func newFakeIdentity(t *testing.T) *fakeIdentity {
	f := &fakeIdentity{
		whoamiScript: []string{"Guest"},
		loginMessage: "Logged In",
		loginStatus:  http.StatusOK,
		regStatus:    "success",
		regMessage:   "Vendor registered successfully",
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.URL.Path {
		case "/csrf-token":
			json.NewEncoder(w).Encode(map[string]string{"message": "tok"})

		case "/login":
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			w.WriteHeader(f.loginStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": f.loginMessage, "home_page": "/app"})

		case "/whoami":
			idx := f.whoamiCalls
			f.whoamiCalls++
			if idx >= len(f.whoamiScript) {
				idx = len(f.whoamiScript) - 1
			}
			json.NewEncoder(w).Encode(map[string]string{"message": f.whoamiScript[idx]})

		case "/logout":
			f.logoutCalls++
			w.WriteHeader(http.StatusOK)

		case "/register-vendor":
			json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"status": f.regStatus, "message": f.regMessage},
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeIdentity) gateway() *Gateway {
	client := NewClient(f.URL, testLogger())
	tokens := NewTokenManager(client)
	exec := NewExecutor(client, tokens, testLogger())
	return NewGateway(client, exec, tokens, testLogger()).WithVerification(3, 0)
}

func (f *fakeIdentity) whoamiCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whoamiCalls
}

func TestGatewayLoginVerifiedFirstAttempt(t *testing.T) {
	f := newFakeIdentity(t)
	f.whoamiScript = []string{"a@b.com"}

	result, err := f.gateway().Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.True(t, result.Verified)
	assert.Equal(t, "a@b.com", result.VerifiedEmail)
	assert.Equal(t, "/app", result.HomePage)
	assert.Equal(t, 1, f.whoamiCount())
}

func TestGatewayLoginVerificationBound(t *testing.T) {
	f := newFakeIdentity(t)
	f.whoamiScript = []string{"Guest"} // never confirms

	result, err := f.gateway().Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err, "verification timeout must not fail the login")

	assert.True(t, result.OK, "optimistic success")
	assert.False(t, result.Verified)
	assert.Empty(t, result.VerifiedEmail)
	assert.Equal(t, 3, f.whoamiCount(), "exactly 3 attempts, not fewer or more")
}

func TestGatewayLoginVerifiedSecondAttempt(t *testing.T) {
	f := newFakeIdentity(t)
	f.whoamiScript = []string{"Guest", "a@b.com"}

	result, err := f.gateway().Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.Equal(t, 2, f.whoamiCount(), "loop stops as soon as verification lands")
}

func TestGatewayLoginRejected(t *testing.T) {
	f := newFakeIdentity(t)
	f.loginMessage = "Invalid login credentials"

	result, err := f.gateway().Login(context.Background(), "a@b.com", "bad")
	require.NoError(t, err, "rejection is a boolean, not an error")

	assert.False(t, result.OK)
	assert.Equal(t, 0, f.whoamiCount(), "no verification after rejection")
}

func TestGatewayLoginRejectedStatus(t *testing.T) {
	f := newFakeIdentity(t)
	f.loginStatus = http.StatusUnauthorized

	result, err := f.gateway().Login(context.Background(), "a@b.com", "bad")
	require.NoError(t, err)
	assert.False(t, result.OK)
}

func TestGatewayLoginUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", testLogger())
	tokens := NewTokenManager(client)
	gateway := NewGateway(client, NewExecutor(client, tokens, testLogger()), tokens, testLogger())

	_, err := gateway.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestGatewaySignupSuccess(t *testing.T) {
	f := newFakeIdentity(t)

	msg, err := f.gateway().Signup(context.Background(), Registration{
		Company:  "Acme",
		Email:    "a@b.com",
		Contact:  "A B",
		Phone:    "555",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "Vendor registered successfully", msg)
}

func TestGatewaySignupRejected(t *testing.T) {
	f := newFakeIdentity(t)
	f.regStatus = "failed"
	f.regMessage = "Email already registered"

	_, err := f.gateway().Signup(context.Background(), Registration{Email: "a@b.com"})
	require.Error(t, err)
	assert.True(t, errors.IsRegistration(err))
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestGatewaySignupUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", testLogger())
	tokens := NewTokenManager(client)
	gateway := NewGateway(client, NewExecutor(client, tokens, testLogger()), tokens, testLogger())

	_, err := gateway.Signup(context.Background(), Registration{Email: "a@b.com"})
	require.Error(t, err)
	assert.True(t, errors.IsRegistration(err), "transport failure surfaces as a registration error too")
}

func TestGatewayWhoami(t *testing.T) {
	f := newFakeIdentity(t)
	f.whoamiScript = []string{"a@b.com", "Guest"}
	gateway := f.gateway()

	id, err := gateway.Whoami(context.Background())
	require.NoError(t, err)
	assert.False(t, id.IsGuest())
	assert.Equal(t, "a@b.com", id.Email)

	id, err = gateway.Whoami(context.Background())
	require.NoError(t, err)
	assert.True(t, id.IsGuest(), "Guest is a value, distinct from an error")
}

func TestGatewayWhoamiUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", testLogger())
	tokens := NewTokenManager(client)
	gateway := NewGateway(client, NewExecutor(client, tokens, testLogger()), tokens, testLogger())

	_, err := gateway.Whoami(context.Background())
	require.Error(t, err, "unreachable is an error, never Guest")
	assert.True(t, errors.IsTransport(err))
}

func TestGatewayLogoutBestEffort(t *testing.T) {
	f := newFakeIdentity(t)
	gateway := f.gateway()

	gateway.Logout(context.Background())

	f.mu.Lock()
	calls := f.logoutCalls
	f.mu.Unlock()
	assert.Equal(t, 1, calls)

	// And against a dead service: must not panic or error out.
	client := NewClient("http://127.0.0.1:1", testLogger())
	tokens := NewTokenManager(client)
	dead := NewGateway(client, NewExecutor(client, tokens, testLogger()), tokens, testLogger())
	dead.Logout(context.Background())
}
