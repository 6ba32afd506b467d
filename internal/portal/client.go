package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/evertrade/vendorgate/internal/log"
)

// Client is the base HTTP client for the identity service.
//
// It owns the cookie jar: the real session credential is an HTTP-only
// cookie the service sets on login, so every request goes through the
// same jar-carrying http.Client. Nothing in this package ever reads the
// cookie value.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a base client for the identity service at baseURL
func NewClient(baseURL string, logger *log.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: logger,
	}
}

// WithHTTPClient replaces the underlying http.Client, keeping the cookie
// jar if the replacement has none.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc.Jar == nil {
		hc.Jar = c.httpClient.Jar
	}
	c.httpClient = hc
	return c
}

// WithTimeout sets the per-request timeout
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// do performs a raw request without CSRF handling. Pre-auth calls (login,
// signup, the token fetch itself) go through here; everything else goes
// through the Executor.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.httpClient.Do(req)
}

// noCacheHeader disables caches for reads whose staleness would poison
// session reconciliation (whoami, csrf-token).
func noCacheHeader() http.Header {
	h := http.Header{}
	h.Set("Cache-Control", "no-cache, no-store")
	return h
}

// decodeJSON decodes the response body into target and closes it
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// drain discards and closes a response body so the connection can be reused
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
