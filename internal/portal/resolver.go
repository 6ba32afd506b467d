package portal

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/evertrade/vendorgate/internal/log"
)

// Resolver turns a bare identity into a display profile via two chained
// lookups: the canonical display name for the user, then the linked
// business entity for company name and record id.
type Resolver struct {
	exec   *Executor
	logger *log.Logger
}

// NewResolver creates a resolver fetching through exec
func NewResolver(exec *Executor, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{exec: exec, logger: logger}
}

// Resolve builds a principal for email. It never fails: each lookup's
// failure is isolated and degrades only its own fields, so the worst
// case is a principal made of the email's local part and the default
// company placeholder.
func (r *Resolver) Resolve(ctx context.Context, email string) Principal {
	principal := Principal{
		Email:       email,
		DisplayName: localPart(email),
		Company:     DefaultCompany,
	}

	if name, ok := r.lookupDisplayName(ctx, email); ok {
		principal.DisplayName = name
	}

	if company, recordID, ok := r.lookupCompany(ctx, email); ok {
		principal.Company = company
		principal.LinkedRecordID = recordID
	}

	return principal
}

func (r *Resolver) lookupDisplayName(ctx context.Context, email string) (string, bool) {
	resp, err := r.exec.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/user-lookup/" + url.PathEscape(email),
	})
	if err != nil {
		r.logger.Debug("user lookup failed", "email", email, "error", err.Error())
		return "", false
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		r.logger.Debug("user lookup rejected", "email", email, "status", resp.StatusCode)
		return "", false
	}

	var doc userLookup
	if err := decodeJSON(resp, &doc); err != nil || doc.FullName == "" {
		return "", false
	}

	return doc.FullName, true
}

func (r *Resolver) lookupCompany(ctx context.Context, email string) (string, string, bool) {
	resp, err := r.exec.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/company-lookup?email=" + url.QueryEscape(email),
	})
	if err != nil {
		r.logger.Debug("company lookup failed", "email", email, "error", err.Error())
		return "", "", false
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		r.logger.Debug("company lookup rejected", "email", email, "status", resp.StatusCode)
		return "", "", false
	}

	var doc companyLookup
	if err := decodeJSON(resp, &doc); err != nil || doc.SupplierName == "" {
		return "", "", false
	}

	return doc.SupplierName, doc.Name, true
}

// localPart returns everything before the @, or the whole string when
// there is none.
func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
