package audit

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pharmatrace/batch-registry/pkg/auth"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records one audit event per write request (POST/PUT/PATCH/
// DELETE), successful or not. Reads pass through unrecorded. It mounts
// outside the authentication middleware so rejected attempts are recorded
// too; the principal holder surfaces the actor resolved deeper in the chain.
func Middleware(sink *Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sink == nil || !isWriteMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			r = r.WithContext(auth.HoldPrincipal(r.Context()))
			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			actor := "anonymous"
			if p, ok := auth.HeldPrincipal(r.Context()); ok {
				actor = p.ID
			}

			entity, entityID, action := classifyRequest(r.Method, r.URL.Path)
			sink.Record(Event{
				Actor:      actor,
				Entity:     entity,
				EntityID:   entityID,
				Action:     action,
				Outcome:    outcomeFromStatus(capture.statusCode),
				StatusCode: capture.statusCode,
				RequestID:  middleware.GetReqID(r.Context()),
				Detail: map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				},
			})
		})
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusForbidden:
		return "denied"
	default:
		return "failure"
	}
}

// classifyRequest derives (entity, entityID, action) from the request path.
// Paths look like /api/v1/batches/{id}/release or /api/v1/admin/users.
func classifyRequest(method, path string) (entity, entityID, action string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// Drop the /api/v1 prefix when present.
	if len(parts) >= 2 && parts[0] == "api" {
		parts = parts[2:]
	}
	if len(parts) > 0 && parts[0] == "admin" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "unknown", "", strings.ToLower(method)
	}

	entity = parts[0]
	if len(parts) > 1 {
		entityID = parts[1]
	}
	if len(parts) > 2 {
		action = parts[len(parts)-1]
	} else {
		switch method {
		case http.MethodPost:
			action = "create"
		case http.MethodDelete:
			action = "delete"
		default:
			action = "update"
		}
	}
	return entity, entityID, action
}
