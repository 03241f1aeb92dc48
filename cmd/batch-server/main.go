// Package main provides the batch registry server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/glebarez/sqlite"
	"github.com/golang/glog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/audit"
	"github.com/pharmatrace/batch-registry/pkg/auth"
	"github.com/pharmatrace/batch-registry/pkg/batch"
	"github.com/pharmatrace/batch-registry/pkg/config"
	"github.com/pharmatrace/batch-registry/pkg/reporting"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to an optional YAML config file")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("starting batch registry server",
		"listen", cfg.ListenAddr,
		"databaseType", cfg.DatabaseType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := openDatabase(cfg)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	// Stores and services.
	batchStore := batch.NewStore(gormDB)
	userStore := auth.NewUserStore(gormDB)
	roleStore := auth.NewRoleStore(gormDB)
	auditStore := audit.NewStore(gormDB)
	for _, migrate := range []func() error{batchStore.AutoMigrate, userStore.AutoMigrate, auditStore.AutoMigrate} {
		if err := migrate(); err != nil {
			glog.Fatalf("Failed to migrate schema: %v", err)
		}
	}

	sink := audit.NewSink(auditStore, cfg.AuditQueueSize, logger)
	go sink.Run(ctx)
	go audit.RunRetention(ctx, auditStore, cfg.AuditRetentionDays, logger)

	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenLifetime)
	resolver := auth.NewScopeResolver(gormDB)
	batchSvc := batch.NewService(batchStore, sink)
	reportingSvc := reporting.NewService(gormDB)

	router := buildRouter(cfg, issuer, resolver, userStore, roleStore, batchSvc, reportingSvc, auditStore, sink)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("batch registry server ready", "listen", cfg.ListenAddr)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// The sink flushes queued events once the root context is cancelled.
	sink.Wait()

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("batch registry server stopped")
}

// buildRouter assembles the full HTTP surface: public auth routes, then the
// token-guarded API with audit capture on every write.
func buildRouter(
	cfg *config.Config,
	issuer *auth.TokenIssuer,
	resolver *auth.ScopeResolver,
	users *auth.UserStore,
	roles *auth.RoleStore,
	batchSvc *batch.Service,
	reportingSvc *reporting.Service,
	auditStore *audit.Store,
	sink *audit.Sink,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		// Audit sits outside authentication: rejected and public write
		// attempts (login, the admin bootstrap) must be recorded too.
		api.Use(audit.Middleware(sink))

		api.Group(func(pub chi.Router) {
			auth.RegisterPublic(pub, users, issuer)
		})

		api.Group(func(priv chi.Router) {
			priv.Use(auth.Middleware(issuer))

			auth.RegisterAdmin(priv, users, roles)
			batch.Register(priv, batchSvc, roles)
			reporting.Register(priv, reportingSvc, resolver)
			audit.Register(priv, auditStore)
		})
	})

	return r
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	switch cfg.DatabaseType {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DatabaseDSN), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
}
