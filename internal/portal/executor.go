package portal

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/evertrade/vendorgate/internal/errors"
	"github.com/evertrade/vendorgate/internal/log"
)

// CsrfHeader is the anti-forgery header attached to protected requests
const CsrfHeader = "X-CSRF-Token"

// Request describes one call through the Executor.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Executor sends requests with the CSRF token attached and recovers from
// token rejection with exactly one refresh-and-retry.
//
// It fails only on true transport errors; HTTP 4xx/5xx come back as
// ordinary responses for the caller to interpret. A 401 is logged as a
// lost session but deliberately triggers nothing here: transient 403s
// must never evict a valid session, and real expiry is the reconciler's
// call, not the transport layer's.
type Executor struct {
	client *Client
	tokens *TokenManager
	logger *log.Logger
}

// NewExecutor creates an executor over client using tokens
func NewExecutor(client *Client, tokens *TokenManager, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		client: client,
		tokens: tokens,
		logger: logger,
	}
}

// Do sends the request with the current CSRF token. On a 403 or 417 the
// token is refreshed and the request retried exactly once; whatever the
// second attempt yields is returned, even another failure. The retry
// budget is capped at one to bound latency on user-facing actions.
func (e *Executor) Do(ctx context.Context, req Request) (*http.Response, error) {
	token := e.tokens.Current()
	if token == "" {
		token = e.tokens.Refresh(ctx)
	}

	resp, err := e.send(ctx, req, token)
	if err != nil {
		return nil, errors.NewUnreachableError(req.Method+" "+req.Path, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// Session expired. Not our problem to solve: the reconciler
		// decides if and when to evict.
		e.logger.Warn("session expired", "path", req.Path)
		return resp, nil

	case http.StatusForbidden, http.StatusExpectationFailed:
		e.logger.Debug("csrf-suspect rejection, refreshing token",
			"path", req.Path,
			"status", resp.StatusCode,
			"csrf_hint", looksLikeCsrfError(resp),
		)
		resp.Body.Close()

		fresh := e.tokens.Refresh(ctx)
		retried, err := e.send(ctx, req, fresh)
		if err != nil {
			return nil, errors.NewUnreachableError(req.Method+" "+req.Path, err)
		}
		return retried, nil

	default:
		return resp, nil
	}
}

// send performs one attempt with the given token attached
func (e *Executor) send(ctx context.Context, req Request, token string) (*http.Response, error) {
	header := http.Header{}
	for k, vs := range req.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	if token != "" {
		header.Set(CsrfHeader, token)
	}

	return e.client.do(ctx, req.Method, req.Path, req.Body, header)
}

// looksLikeCsrfError peeks at a rejection body for a token-error hint.
// Purely informational: any 403/417 is retried regardless, the hint only
// makes the log line more useful. Consumes the body.
func looksLikeCsrfError(resp *http.Response) bool {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	body := strings.ToLower(string(snippet))
	return strings.Contains(body, "csrf") || strings.Contains(body, "token")
}
