package reporting

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/auth"
)

// callerScope resolves the caller's visibility scope from the request
// principal.
func callerScope(r *http.Request, resolver *auth.ScopeResolver) (auth.Scope, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Scope{}, apierr.Unauthenticated("missing credential")
	}
	return resolver.ScopeForCaller(r.Context(), principal)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// customerBatchesHandler serves the paginated customer batch summary.
func customerBatchesHandler(svc *Service, resolver *auth.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := callerScope(r, resolver)
		if err != nil {
			apierr.Write(w, err)
			return
		}

		params := SummaryParams{
			Page:      queryInt(r, "page", 1),
			Limit:     queryInt(r, "limit", 10),
			Search:    r.URL.Query().Get("search"),
			SortBy:    r.URL.Query().Get("sortBy"),
			SortOrder: r.URL.Query().Get("sortOrder"),
		}

		summary, err := svc.CustomerBatchSummary(r.Context(), chi.URLParam(r, "customerId"), params, scope)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, summary)
	}
}

// batchDetailHandler serves the full nested batch record.
func batchDetailHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.BatchDetail(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, detail)
	}
}

// genealogyHandler serves the genealogy table rows.
func genealogyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.BatchGenealogy(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}

// lineageHandler serves parent materials and child batches.
func lineageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineage, err := svc.BatchLineage(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, lineage)
	}
}

// dashboardSummaryHandler serves the global counters.
func dashboardSummaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.DashboardSummary(r.Context())
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, summary)
	}
}

// customerDashboardHandler serves the per-customer status breakdown.
func customerDashboardHandler(svc *Service, resolver *auth.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := callerScope(r, resolver)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		rows, err := svc.CustomerBatchDashboard(r.Context(), scope)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]any{"customers": rows})
	}
}

// equipmentOverviewHandler serves the batch equipment overview.
func equipmentOverviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.EquipmentOverview(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, overview)
	}
}

// equipmentDetailHandler serves one equipment record with history.
func equipmentDetailHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.EquipmentDetail(r.Context(), chi.URLParam(r, "equipmentId"))
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, detail)
	}
}

// Register attaches all reporting routes.
func Register(r chi.Router, svc *Service, resolver *auth.ScopeResolver) {
	r.Get("/dashboard/summary", dashboardSummaryHandler(svc))
	r.Get("/dashboard/customers", customerDashboardHandler(svc, resolver))
	r.Get("/customers/{customerId}/batches", customerBatchesHandler(svc, resolver))

	r.Get("/batches/{batchId}", batchDetailHandler(svc))
	r.Get("/batches/{batchId}/genealogy-table", genealogyHandler(svc))
	r.Get("/batches/{batchId}/lineage", lineageHandler(svc))
	r.Get("/batches/{batchId}/equipment", equipmentOverviewHandler(svc))

	r.Get("/equipment/{equipmentId}", equipmentDetailHandler(svc))
}
