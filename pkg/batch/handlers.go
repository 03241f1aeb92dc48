package batch

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

type releaseRequest struct {
	Notes string `json:"notes"`
}

type forceReleaseRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// getStatusHandler returns the batch's current lifecycle record.
func getStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.GetStatus(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, b)
	}
}

// releaseHandler runs the gated release. The actor is the authenticated
// principal, not a request field.
func releaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())

		var req releaseRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				apierr.Write(w, apierr.Validation("invalid request body: %v", err))
				return
			}
		}

		released, err := svc.Release(r.Context(), chi.URLParam(r, "batchId"), principal.ID, req.Notes)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, released)
	}
}

// forceReleaseHandler runs the ungated override release.
func forceReleaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())

		var req forceReleaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierr.Write(w, apierr.Validation("invalid request body: %v", err))
			return
		}

		released, err := svc.ForceRelease(r.Context(), chi.URLParam(r, "batchId"), principal.ID, req.Reason)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, released)
	}
}

// updateStatusHandler applies a guarded status transition.
func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierr.Write(w, apierr.Validation("invalid request body: %v", err))
			return
		}

		b, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "batchId"),
			model.BatchStatus(req.Status), principal.ID, req.Notes)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, b)
	}
}

// Register attaches the batch lifecycle routes. roles backs the
// force-release capability check.
func Register(r chi.Router, svc *Service, roles *auth.RoleStore) {
	r.Get("/batches/{batchId}/status", getStatusHandler(svc))
	r.Put("/batches/{batchId}/release", releaseHandler(svc))
	r.Put("/batches/{batchId}/status", updateStatusHandler(svc))
	r.With(auth.RequireGrant(roles, "batches", "force")).
		Put("/batches/{batchId}/force-release", forceReleaseHandler(svc))
}
