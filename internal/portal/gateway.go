package portal

import (
	"context"
	"net/http"
	"time"

	"github.com/evertrade/vendorgate/internal/errors"
	"github.com/evertrade/vendorgate/internal/log"
)

// Gateway exposes the identity service operations: login, signup, logout
// and whoami. Pre-auth calls (login, signup) go out raw since no session
// exists yet; the rest ride the CSRF-protected executor.
type Gateway struct {
	client *Client
	exec   *Executor
	tokens *TokenManager
	logger *log.Logger

	verifyAttempts int
	verifyDelay    time.Duration
}

// NewGateway creates a gateway with default verification bounds
func NewGateway(client *Client, exec *Executor, tokens *TokenManager, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		client:         client,
		exec:           exec,
		tokens:         tokens,
		logger:         logger,
		verifyAttempts: 3,
		verifyDelay:    700 * time.Millisecond,
	}
}

// WithVerification sets custom post-login verification bounds.
func (g *Gateway) WithVerification(attempts int, delay time.Duration) *Gateway {
	if attempts > 0 {
		g.verifyAttempts = attempts
	}
	g.verifyDelay = delay
	return g
}

// Login authenticates with the identity service.
//
// The result's OK field is false only when the endpoint rejected the
// credentials; transport failures come back as an error. On acceptance
// the CSRF token is refreshed and a bounded whoami loop absorbs the
// propagation delay between the auth cookie being set and it being
// observable. Verification never failing the login is deliberate: if the
// service said "Logged In" the caller proceeds optimistically with the
// submitted email rather than being bounced.
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := g.client.do(ctx, http.MethodPost, "/login", loginPayload{Usr: email, Pwd: password}, nil)
	if err != nil {
		return nil, errors.NewUnreachableError("login", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		g.logger.Info("login rejected", "email", email, "status", resp.StatusCode)
		return &LoginResult{}, nil
	}

	var ack loginAck
	if err := decodeJSON(resp, &ack); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBadResponse, "login response unparseable", err)
	}

	if ack.Message != "Logged In" {
		g.logger.Info("login rejected", "email", email)
		return &LoginResult{}, nil
	}

	// The session cookie is now in the jar; arm the anti-forgery token
	// before the first protected call needs it.
	g.tokens.Refresh(ctx)

	result := &LoginResult{OK: true, HomePage: ack.HomePage}

	for attempt := 0; attempt < g.verifyAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, g.verifyDelay); err != nil {
				break
			}
		}

		id, err := g.Whoami(ctx)
		if err == nil && !id.IsGuest() {
			result.Verified = true
			result.VerifiedEmail = id.Email
			break
		}
	}

	if !result.Verified {
		g.logger.Warn("login verification inconclusive, proceeding optimistically", "email", email)
	}

	return result, nil
}

// Signup registers a new vendor.
//
// Any non-success acknowledgment or transport failure surfaces as a
// registration error carrying the server-supplied message. No retry.
func (g *Gateway) Signup(ctx context.Context, reg Registration) (string, error) {
	resp, err := g.client.do(ctx, http.MethodPost, "/register-vendor", reg, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRegistrationRejected, "could not reach identity service", err)
	}

	var envelope registrationEnvelope
	if err := decodeJSON(resp, &envelope); err != nil {
		return "", errors.Wrap(errors.ErrCodeRegistrationRejected, "registration response unparseable", err)
	}

	if envelope.Message.Status != "success" {
		return "", errors.NewRegistrationError(envelope.Message.Message)
	}

	return envelope.Message.Message, nil
}

// Logout posts to the logout endpoint, best-effort. Transport failure is
// swallowed; logging out must always succeed client-side.
func (g *Gateway) Logout(ctx context.Context) {
	resp, err := g.exec.Do(ctx, Request{Method: http.MethodPost, Path: "/logout"})
	if err != nil {
		g.logger.Debug("logout request failed", "error", err.Error())
		return
	}
	drain(resp)
}

// Whoami asks the identity service who is logged in.
//
// Returns (identity, nil) for an authenticated session, (Guest, nil) when
// the service answered "no one", and a non-nil error only when it could
// not be asked. Callers must keep those last two apart.
func (g *Gateway) Whoami(ctx context.Context) (Identity, error) {
	resp, err := g.exec.Do(ctx, Request{Method: http.MethodGet, Path: "/whoami", Header: noCacheHeader()})
	if err != nil {
		return Identity{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := resp.StatusCode
		drain(resp)
		return Identity{}, errors.New(errors.ErrCodeBadResponse, "whoami returned status "+http.StatusText(status))
	}

	var envelope messageEnvelope
	if err := decodeJSON(resp, &envelope); err != nil {
		return Identity{}, errors.Wrap(errors.ErrCodeBadResponse, "whoami response unparseable", err)
	}

	if envelope.Message == "" || envelope.Message == "Guest" {
		return Guest, nil
	}

	return Identity{Email: envelope.Message}, nil
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
