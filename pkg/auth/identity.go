package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// SessionCookie is the name of the HTTP-only cookie carrying the token.
const SessionCookie = "batchreg_session"

// principalCtxKey is an unexported type used as the context key for Principal.
type principalCtxKey struct{}

// Principal represents the authenticated caller.
type Principal struct {
	ID     string
	Role   string
	RoleID string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// WithPrincipal returns a new context with the Principal attached.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the Principal from the context.
// Returns the zero value and false if no principal is set.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// holderCtxKey is the context key for the principal holder.
type holderCtxKey struct{}

// principalHolder lets middleware mounted outside Middleware observe the
// principal it resolves deeper in the chain. The holder is written before
// the inner handler runs and read after it returns.
type principalHolder struct {
	principal Principal
	set       bool
}

// HoldPrincipal installs a principal holder in the context. Middleware fills
// it when authentication succeeds.
func HoldPrincipal(ctx context.Context) context.Context {
	return context.WithValue(ctx, holderCtxKey{}, &principalHolder{})
}

// HeldPrincipal reads the principal from the holder, if one was installed
// and filled. Falls back to the principal attached directly to the context.
func HeldPrincipal(ctx context.Context) (Principal, bool) {
	if h, ok := ctx.Value(holderCtxKey{}).(*principalHolder); ok && h.set {
		return h.principal, true
	}
	return PrincipalFromContext(ctx)
}

// credentialFromRequest extracts the raw token from the Authorization header
// or the session cookie. Returns "" when neither is present.
func credentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware returns HTTP middleware that authenticates the bearer header or
// session cookie and stores the Principal in the request context. Requests
// without a valid credential are rejected.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := issuer.Verify(credentialFromRequest(r))
			if err != nil {
				apierr.Write(w, err)
				return
			}
			ctx := r.Context()
			if h, ok := ctx.Value(holderCtxKey{}).(*principalHolder); ok {
				h.principal = principal
				h.set = true
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
