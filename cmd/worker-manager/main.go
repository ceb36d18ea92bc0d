// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lead-intake/internal/bootstrap"
	"lead-intake/internal/common/camunda"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/observability"

	clr "lead-intake/internal/workers/intake/create-lead-record"
	uls "lead-intake/internal/workers/intake/update-lead-status"
	sln "lead-intake/internal/workers/notification/send-lead-notification"
)

const traceSampleRatio = 0.1

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
		WithFields(map[string]interface{}{"service": "worker-manager"})

	obs, err := observability.New("worker-manager", traceSampleRatio)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zc *camunda.Client
	err = bootstrap.RetryWithBackoff(ctx, func() error {
		var err error
		zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zc.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Backends shared with the intake API ---
	deps, err := bootstrap.Build(ctx, cfg, log, bootstrap.WithProcessStarter(zc))
	if err != nil {
		zapLog.Fatal("backend init failed", zap.Error(err))
	}
	defer deps.Close()

	// The notification task always delivers in-process; it is the end of the camunda path.
	direct, err := bootstrap.NewDirect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	engine := deps.Workflow(log)
	registry := camunda.NewRegistry(zc.GetClient(), obs, log)

	// --- Start Workers ---
	wcfg := config.GetWorkerConfig(cfg, clr.TaskType)
	registry.Start(clr.TaskType, wcfg, clr.NewHandler(clr.LoadConfig(wcfg), deps.IntakeService(log), log).Handle)

	wcfg = config.GetWorkerConfig(cfg, uls.TaskType)
	registry.Start(uls.TaskType, wcfg, uls.NewHandler(uls.LoadConfig(wcfg), engine, log).Handle)

	wcfg = config.GetWorkerConfig(cfg, sln.TaskType)
	registry.Start(sln.TaskType, wcfg, sln.NewHandler(sln.LoadConfig(wcfg), engine, direct, log).Handle)

	zapLog.Info("All workers started", zap.Int("count", registry.Count()))

	// --- Health, readiness and metrics ---
	readiness := append([]database.Pinger{zc}, deps.Pingers...)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "workers": registry.Count()})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		results, ok := database.PingAll(ctx, readiness...)
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]interface{}{"ready": ok, "dependencies": results})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	srv := &http.Server{Addr: ":8080", Handler: mux, ReadTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
