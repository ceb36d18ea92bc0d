// cmd/intake-api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lead-intake/internal/api"
	"lead-intake/internal/bootstrap"
	"lead-intake/internal/common/auth"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/schema"
)

const traceSampleRatio = 0.1

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "intake-api"})

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs, err := observability.New(cfg.App.Name, traceSampleRatio)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()
	deps, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backend init failed", zap.Error(err))
	}
	defer deps.Close()

	var validator auth.TokenValidator
	if cfg.Auth.Mode == config.AuthModeKeycloak {
		kc := cfg.Auth.Keycloak
		validator = auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret)
	}
	gate := auth.NewStaffGate(cfg.Auth, validator, log)

	handlers := api.Handlers{
		Intake:   api.NewIntakeHandler(deps.IntakeService(log), log),
		Admin:    api.NewAdminHandler(deps.Workflow(log), deps.Feed(log), log),
		Variants: api.NewVariantHandler(schema.Default()),
		Health:   api.NewHealthHandler(cfg.App.Version, deps.Pingers...),
	}
	router := api.NewRouter(api.RouterConfig{
		Server:  cfg.Server,
		Sources: deps.Sources,
		Staff:   gate,
		Logger:  log,
	}, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("intake api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	zapLog.Info("shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}
	zapLog.Info("intake api stopped")
}
