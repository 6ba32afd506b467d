package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evertrade/vendorgate/internal/errors"
	"github.com/evertrade/vendorgate/internal/log"
	"github.com/evertrade/vendorgate/internal/portal"
)

// Reconciler reconciles the optimistic local session with the identity
// service, which is authoritative but slow and occasionally flaky.
//
// The divergence policy: a transport failure never evicts (trust local
// state on failure), a 403 never evicts, and a Guest answer evicts only
// after a debounced second confirmation. The overriding goal is to never
// needlessly log out a user who appears authenticated.
type Reconciler struct {
	gateway  *portal.Gateway
	resolver *portal.Resolver
	store    *Store
	logger   *log.Logger

	recheckDelay time.Duration

	// onExpired runs after a confirmed-guest eviction; the CLI uses it to
	// point the user back at the login surface.
	onExpired func()

	mu    sync.RWMutex
	state State
}

// NewReconciler creates a reconciler over the given collaborators
func NewReconciler(gateway *portal.Gateway, resolver *portal.Resolver, store *Store, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		gateway:      gateway,
		resolver:     resolver,
		store:        store,
		logger:       logger,
		recheckDelay: 1500 * time.Millisecond,
		state:        StateUnknown,
	}
}

// WithRecheckDelay sets the guest-divergence debounce interval
func (r *Reconciler) WithRecheckDelay(d time.Duration) *Reconciler {
	r.recheckDelay = d
	return r
}

// OnSessionExpired registers a hook running after a confirmed eviction
func (r *Reconciler) OnSessionExpired(fn func()) *Reconciler {
	r.onExpired = fn
	return r
}

// State returns the reconciler's current lifecycle state
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Initialize hydrates the cached snapshot (the fast path that unblocks
// callers immediately) and then verifies it against the service. Safe to
// call repeatedly; when the remote identity is unchanged the second call
// commits nothing and performs no redundant profile resolution.
func (r *Reconciler) Initialize(ctx context.Context) Session {
	sess := r.store.Hydrate()
	if sess.IsAuthenticated() {
		r.setState(StateHydrated)
	} else {
		r.setState(StateEmpty)
	}

	r.verify(ctx)
	return r.store.Current()
}

// Resync re-runs verification against the service. It catches a logout
// performed elsewhere. Re-entrant safe; overlapping runs resolve
// last-writer-wins since every commit is a full replace.
func (r *Reconciler) Resync(ctx context.Context) Session {
	r.verify(ctx)
	return r.store.Current()
}

// Watch runs Resync every interval until ctx is done
func (r *Reconciler) Watch(ctx context.Context, interval time.Duration) {
	r.logger.Debug("session watch started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Resync(ctx)
		case <-ctx.Done():
			r.logger.Debug("session watch stopped")
			return
		}
	}
}

func (r *Reconciler) verify(ctx context.Context) {
	r.setState(StateVerifying)

	id, err := r.gateway.Whoami(ctx)
	if err != nil {
		// Trust-on-failure: inability to reach the service is never
		// grounds for eviction.
		r.logger.WithError(err).Warn("session verification unreachable, trusting local state")
		r.setState(StateUnreachable)
		return
	}

	if !id.IsGuest() {
		r.adopt(ctx, id)
		return
	}

	if !r.store.IsAuthenticated() {
		// Local and remote agree there is no session.
		r.setState(StateConfirmed)
		return
	}

	// Remote says Guest while local claims a session. Debounce: one
	// Guest answer can be a backend hiccup or a race with cookie
	// propagation, so wait and ask once more before believing it.
	r.logger.Info("remote session divergence, rechecking", "delay", r.recheckDelay.String())
	if err := sleepCtx(ctx, r.recheckDelay); err != nil {
		r.setState(StateUnreachable)
		return
	}

	id, err = r.gateway.Whoami(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("divergence recheck unreachable, trusting local state")
		r.setState(StateUnreachable)
		return
	}

	if !id.IsGuest() {
		r.logger.Info("divergence was transient, keeping session")
		r.adopt(ctx, id)
		return
	}

	r.logger.Info("remote confirmed guest twice, clearing session")
	r.store.Clear()
	r.setState(StateDivergentGuest)

	if r.onExpired != nil {
		r.onExpired()
	}
}

// adopt commits a session for the verified identity. When the local
// session already matches, it is confirmed as-is: no re-resolution, no
// redundant commit.
func (r *Reconciler) adopt(ctx context.Context, id portal.Identity) {
	current := r.store.Current()
	if current.IsAuthenticated() && current.Principal.Email == id.Email {
		r.setState(StateConfirmed)
		return
	}

	principal := r.resolver.Resolve(ctx, id.Email)
	r.store.Commit(Session{
		Principal: &principal,
		Token:     newToken(),
	})
	r.setState(StateConfirmed)
}

// Login runs the full explicit-login flow: authenticate, resolve the
// profile, commit. Strictly sequential within one call. A rejected
// credential pair returns a result with OK false and a nil error.
func (r *Reconciler) Login(ctx context.Context, email, password string) (*portal.LoginResult, error) {
	result, err := r.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !result.OK {
		return result, nil
	}

	// Prefer the identity the service confirmed; fall back to the
	// submitted email when verification stayed inconclusive.
	resolved := email
	if result.Verified {
		resolved = result.VerifiedEmail
	}

	principal := r.resolver.Resolve(ctx, resolved)
	r.store.Commit(Session{
		Principal: &principal,
		Token:     newToken(),
	})
	r.setState(StateConfirmed)

	return result, nil
}

// Logout tells the service best-effort and always clears local state. A
// reconciliation racing this call may briefly flap the session back; the
// next verify settles it.
func (r *Reconciler) Logout(ctx context.Context) {
	r.gateway.Logout(ctx)
	r.store.Clear()
	r.setState(StateEmpty)
}

// Signup registers a new vendor through the gateway. The only portal
// fault that surfaces to the caller as an error.
func (r *Reconciler) Signup(ctx context.Context, reg portal.Registration) (string, error) {
	msg, err := r.gateway.Signup(ctx, reg)
	if err != nil {
		if errors.IsRegistration(err) {
			return "", err
		}
		return "", errors.Wrap(errors.ErrCodeRegistrationRejected, "registration failed", err)
	}
	return msg, nil
}

// newToken mints an opaque session marker. Its only meaning is presence.
func newToken() string {
	return "portal-session-" + uuid.NewString()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
