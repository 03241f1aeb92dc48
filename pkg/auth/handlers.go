package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

var validate = validator.New()

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=Operator Analyst QA Supervisor Admin"`
	RoleID   string `json:"roleId"`
}

type assignUsersRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Assignments []struct {
		ProjectID    string `json:"projectId" validate:"required"`
		AssignedRole string `json:"assignedRole"`
	} `json:"assignments"`
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Grants      []struct {
		Resource string `json:"resource" validate:"required"`
		Action   string `json:"action" validate:"required"`
	} `json:"grants"`
}

type grantsRequest struct {
	Grants []struct {
		Resource string `json:"resource" validate:"required"`
		Action   string `json:"action" validate:"required"`
	} `json:"grants" validate:"required,dive"`
}

// decodeValid decodes the request body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("invalid request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apierr.Validation("%v", err)
	}
	return nil
}

// loginHandler issues a session credential as both an HTTP-only cookie and a
// response body field.
func loginHandler(users *UserStore, issuer *TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		user, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			apierr.Write(w, err)
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			apierr.Write(w, apierr.Internal("issue token: %v", err))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(issuer.Lifetime().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		apierr.WriteJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user": map[string]string{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

// registerAdminHandler bootstraps the first admin user. The route is
// unauthenticated but guarded by existence checks in the store.
func registerAdminHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		user := &model.User{
			ID:    uuid.New().String(),
			Email: req.Email,
			Name:  req.Name,
		}
		if err := users.BootstrapFirstAdmin(r.Context(), user, req.Password); err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusCreated, user)
	}
}

// createUserHandler creates a user (admin only).
func createUserHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		user := &model.User{
			ID:     uuid.New().String(),
			Email:  req.Email,
			Name:   req.Name,
			Role:   req.Role,
			RoleID: req.RoleID,
			Active: true,
		}
		if err := users.Create(r.Context(), user, req.Password); err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusCreated, user)
	}
}

// assignUsersHandler replaces a user's project assignments (admin only).
func assignUsersHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignUsersRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		user, err := users.Get(r.Context(), req.UserID)
		if err != nil {
			apierr.Write(w, apierr.Internal("lookup user: %v", err))
			return
		}
		if user == nil {
			apierr.Write(w, apierr.NotFound("user %s not found", req.UserID))
			return
		}

		assignments := make([]model.ProjectAssignment, len(req.Assignments))
		for i, a := range req.Assignments {
			assignments[i] = model.ProjectAssignment{
				ProjectID:    a.ProjectID,
				AssignedRole: a.AssignedRole,
			}
		}
		if err := users.AssignProjects(r.Context(), req.UserID, assignments); err != nil {
			apierr.Write(w, apierr.Internal("assign projects: %v", err))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]any{
			"userId":      req.UserID,
			"assignments": assignments,
		})
	}
}

// listRolesHandler lists all roles with their grants.
func listRolesHandler(roles *RoleStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := roles.List(r.Context())
		if err != nil {
			apierr.Write(w, apierr.Internal("list roles: %v", err))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]any{"roles": list})
	}
}

// createRoleHandler creates a role with its grant set.
func createRoleHandler(roles *RoleStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoleRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		role := &model.Role{
			Name:        req.Name,
			Description: req.Description,
		}
		for _, g := range req.Grants {
			role.Grants = append(role.Grants, model.RoleGrant{Resource: g.Resource, Action: g.Action})
		}
		if err := roles.Create(r.Context(), role); err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusCreated, role)
	}
}

// replaceGrantsHandler swaps a role's grant set.
func replaceGrantsHandler(roles *RoleStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := chi.URLParam(r, "id")

		var req grantsRequest
		if err := decodeValid(r, &req); err != nil {
			apierr.Write(w, err)
			return
		}

		grants := make([]model.RoleGrant, len(req.Grants))
		for i, g := range req.Grants {
			grants[i] = model.RoleGrant{Resource: g.Resource, Action: g.Action}
		}
		if err := roles.ReplaceGrants(r.Context(), roleID, grants); err != nil {
			apierr.Write(w, err)
			return
		}

		role, err := roles.Get(r.Context(), roleID)
		if err != nil {
			apierr.Write(w, apierr.Internal("reload role: %v", err))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, role)
	}
}
