package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
)

// listLogsHandler returns recent audit records, newest first.
func listLogsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				offset = n
			}
		}

		records, total, err := store.List(r.Context(), limit, offset)
		if err != nil {
			apierr.Write(w, apierr.Internal("list audit records: %v", err))
			return
		}
		if records == nil {
			records = []Record{}
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]any{
			"logs":   records,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// Register attaches the audit log routes.
func Register(r chi.Router, store *Store) {
	r.Get("/logs", listLogsHandler(store))
}
