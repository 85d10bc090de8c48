package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/joho/godotenv"

	adapterlogger "admin-rbac/internal/adapters/logger"
	"admin-rbac/internal/config"
	"admin-rbac/internal/platform/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		adapterlogger.New("info").Error(ctx, "configuration error", "error", err)
		os.Exit(1)
	}
	logger := adapterlogger.New(cfg.LogLevel)
	xray.Configure(xray.Config{LogLevel: "error"})

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
	if err := a.EnsureInitialized(ctx, logger); err != nil {
		logger.Error(ctx, "system initialization failed; refusing to serve", "error", err)
		os.Exit(1)
	}

	if cfg.MaintenanceEnabled() {
		a.Scheduler.Start()
		logger.Info(ctx, "maintenance scheduled", "schedule", cfg.MaintenanceSchedule)
	}

	go func() {
		logger.Info(ctx, "starting http server", "port", cfg.Port, "store", cfg.StoreDriver, "auth_mode", cfg.AuthMode)
		if err := a.Router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "maintenance still running at shutdown", "error", err)
	}
	if err := a.Router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http shutdown failed", "error", err)
	}
	logger.Info(shutdownCtx, "server stopped")
}
