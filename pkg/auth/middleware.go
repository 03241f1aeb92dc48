package auth

import (
	"net/http"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
)

// RequireRole returns middleware that enforces an exact role. It must be
// mounted after Middleware so the Principal is in context.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				apierr.Write(w, apierr.Unauthenticated("missing credential"))
				return
			}
			if principal.Role != role {
				apierr.Write(w, apierr.Forbidden("role %s required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGrant returns middleware that enforces a (resource, action)
// capability via the caller's role grants. Admins pass without a lookup.
func RequireGrant(roles *RoleStore, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				apierr.Write(w, apierr.Unauthenticated("missing credential"))
				return
			}
			if principal.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			allowed, err := roles.Allows(r.Context(), principal.RoleID, resource, action)
			if err != nil {
				apierr.Write(w, apierr.Internal("capability check failed: %v", err))
				return
			}
			if !allowed {
				apierr.Write(w, apierr.Forbidden("insufficient permissions for %s/%s", resource, action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
