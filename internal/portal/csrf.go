package portal

import (
	"context"
	"net/http"
	"sync"
)

// TokenManager owns the process-wide anti-forgery token.
//
// There is no expiry timer; staleness is discovered reactively when the
// Executor sees a rejection and asks for a refresh. The token is only
// reachable through Current and Refresh, never as ambient shared state.
type TokenManager struct {
	client *Client

	mu    sync.Mutex
	token string
}

// NewTokenManager creates a token manager fetching through client
func NewTokenManager(client *Client) *TokenManager {
	return &TokenManager{client: client}
}

// Current returns the cached token without a round trip; empty when no
// token has been fetched yet.
func (m *TokenManager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Refresh fetches a fresh token from the identity service.
//
// Refresh is best-effort: on any transport or parse failure it returns
// the previously cached token (possibly empty) rather than failing. A
// stale token just means the next protected request eats one retry.
func (m *TokenManager) Refresh(ctx context.Context) string {
	resp, err := m.client.do(ctx, http.MethodGet, "/csrf-token", nil, noCacheHeader())
	if err != nil {
		m.client.logger.Debug("csrf token fetch failed", "error", err.Error())
		return m.Current()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		m.client.logger.Debug("csrf token fetch rejected", "status", resp.StatusCode)
		return m.Current()
	}

	var envelope messageEnvelope
	if err := decodeJSON(resp, &envelope); err != nil || envelope.Message == "" {
		m.client.logger.Debug("csrf token response unparseable")
		return m.Current()
	}

	m.mu.Lock()
	m.token = envelope.Message
	m.mu.Unlock()

	return envelope.Message
}
