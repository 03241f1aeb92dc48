package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// RegisterPublic attaches the unauthenticated auth routes: login and the
// one-time admin bootstrap (guarded by existence checks, not a credential).
func RegisterPublic(r chi.Router, users *UserStore, issuer *TokenIssuer) {
	r.Post("/user/login", loginHandler(users, issuer))
	r.Post("/admin/register", registerAdminHandler(users))
}

// RegisterAdmin attaches the admin-only user and role management routes.
// The caller mounts these behind Middleware; the admin role check is applied
// per route here.
func RegisterAdmin(r chi.Router, users *UserStore, roles *RoleStore) {
	admin := r.With(RequireRole(model.RoleAdmin))

	admin.Post("/admin/users", createUserHandler(users))
	admin.Post("/admin/assign-users", assignUsersHandler(users))
	admin.Get("/admin/roles", listRolesHandler(roles))
	admin.Post("/admin/roles", createRoleHandler(roles))
	admin.Post("/admin/roles/{id}/grants", replaceGrantsHandler(roles))
}
