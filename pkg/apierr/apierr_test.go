package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err        *Error
		wantCode   Code
		wantStatus int
	}{
		{NotFound("batch %s not found", "B-1"), CodeNotFound, http.StatusNotFound},
		{Validation("bad field"), CodeValidation, http.StatusBadRequest},
		{Conflict("already released"), CodeConflict, http.StatusConflict},
		{Forbidden("no grant"), CodeForbidden, http.StatusForbidden},
		{Unauthenticated("no token"), CodeUnauthenticated, http.StatusUnauthorized},
		{InvalidCredential("bad signature"), CodeInvalidCredential, http.StatusUnauthorized},
		{Internal("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantCode), func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status())
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := Conflict("blocked").
		WithDetail("reason", "OpenDeviationsBlock").
		WithDetail("count", int64(3))

	assert.Equal(t, "OpenDeviationsBlock", err.Details["reason"])
	assert.Equal(t, int64(3), err.Details["count"])
}

func TestFrom(t *testing.T) {
	t.Run("preserves structured errors", func(t *testing.T) {
		orig := NotFound("missing")
		wrapped := fmt.Errorf("handler: %w", orig)
		got := From(wrapped)
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, http.StatusNotFound, got.Status())
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		got := From(errors.New("disk on fire"))
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, http.StatusInternalServerError, got.Status())
	})
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Conflict("batch B-1 is already released").WithDetail("reason", "AlreadyReleased"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "batch B-1 is already released", body.Error.Message)
	assert.Equal(t, "AlreadyReleased", body.Error.Details["reason"])
}
