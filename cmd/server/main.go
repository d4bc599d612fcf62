package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certgate/internal/app"
	jwttoken "certgate/internal/jwt_token"
	"certgate/internal/platform/config"
	"certgate/internal/platform/httpserver"
	"certgate/internal/platform/logger"
	"certgate/internal/platform/metrics"
	httptransport "certgate/internal/transport/http"
	authmw "certgate/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	reg := metrics.New()
	ctx := context.Background()
	a, err := app.New(ctx, cfg, log, app.WithRegisterer(reg))
	if err != nil {
		log.Error("failed to initialize certgate", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close backends", "error", err)
		}
	}()

	routerCfg := httptransport.RouterConfig{
		Issuance: httptransport.NewIssuanceHandler(a.Service, cfg.BatchConcurrency, log),
		Audit:    httptransport.NewAuditHandler(a.Trail, log),
		Metrics:  reg.Handler(),
		Logger:   log,
	}
	if cfg.JWTSigningKey != "" {
		tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer)
		routerCfg.Auth = authmw.RequireAuth(jwttoken.NewAdapter(tokens), log)
	} else {
		log.Warn("CERTGATE_JWT_SIGNING_KEY is unset; /v1 endpoints are unauthenticated")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(routerCfg))
	log.Info("starting certgate", "addr", cfg.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
