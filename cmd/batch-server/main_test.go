package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pharmatrace/batch-registry/pkg/audit"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/batch"
	"github.com/pharmatrace/batch-registry/pkg/config"
	"github.com/pharmatrace/batch-registry/pkg/reporting"
)

type testServer struct {
	handler    http.Handler
	auditStore *audit.Store
	sink       *audit.Sink
	cancel     context.CancelFunc
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	batchStore := batch.NewStore(db)
	userStore := auth.NewUserStore(db)
	roleStore := auth.NewRoleStore(db)
	auditStore := audit.NewStore(db)
	require.NoError(t, batchStore.AutoMigrate())
	require.NoError(t, userStore.AutoMigrate())
	require.NoError(t, auditStore.AutoMigrate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := audit.NewSink(auditStore, 64, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go sink.Run(ctx)

	cfg := &config.Config{
		TokenSecret:   "router-test-secret",
		TokenLifetime: time.Hour,
		ClientOrigin:  "http://localhost:3000",
	}
	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenLifetime)
	resolver := auth.NewScopeResolver(db)
	batchSvc := batch.NewService(batchStore, sink)
	reportingSvc := reporting.NewService(db)

	handler := buildRouter(cfg, issuer, resolver, userStore, roleStore, batchSvc, reportingSvc, auditStore, sink)
	return &testServer{handler: handler, auditStore: auditStore, sink: sink, cancel: cancel}
}

func (s *testServer) drain() {
	s.cancel()
	s.sink.Wait()
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	srv := newTestServer(t)
	defer srv.drain()

	rec := srv.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

// Write attempts that never pass authentication, and writes on the public
// routes, still land in the audit log.
func TestRouter_AuditsRejectedAndPublicWrites(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPut, "/api/v1/batches/B-1/release", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/user/login", `{"email":"nobody@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	srv.drain()

	records, total, err := srv.auditStore.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	byEntity := map[string]audit.Record{}
	for _, r := range records {
		byEntity[r.Entity] = r
	}

	release := byEntity["batches"]
	assert.Equal(t, "anonymous", release.Actor)
	assert.Equal(t, "release", release.Action)
	assert.Equal(t, "failure", release.Outcome)
	assert.Equal(t, http.StatusUnauthorized, release.StatusCode)

	login := byEntity["user"]
	assert.Equal(t, "anonymous", login.Actor)
	assert.Equal(t, "failure", login.Outcome)
}

func TestRouter_UnauthenticatedReadRejected(t *testing.T) {
	srv := newTestServer(t)
	defer srv.drain()

	rec := srv.do(http.MethodGet, "/api/v1/dashboard/summary", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
