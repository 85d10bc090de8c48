package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-xray-sdk-go/xray"

	adapterlogger "admin-rbac/internal/adapters/logger"
	"admin-rbac/internal/config"
	"admin-rbac/internal/platform/app"
	platformlambda "admin-rbac/internal/platform/lambda"
)

func main() {
	ctx := context.Background()
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

	switch cfg.LambdaHandler {
	case "maintenance":
		lambda.Start(platformlambda.NewMaintenanceHandler(a.Jobs, logger))
	default:
		if err := a.EnsureInitialized(ctx, logger); err != nil {
			logger.Error(ctx, "system initialization failed; refusing to serve", "error", err)
			os.Exit(1)
		}
		lambda.Start(platformlambda.NewLambdaHandler(a.Router))
	}
}
