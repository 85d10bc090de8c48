package lambda

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/labstack/echo/v4"

	"admin-rbac/internal/application"
	"admin-rbac/internal/ports"
)

type LambdaHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

func NewLambdaHandler(e *echo.Echo) LambdaHandler {
	adapter := echoadapter.NewV2(e)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}
}

type MaintenanceRunner interface {
	RunFullMaintenance(ctx context.Context) (application.MaintenanceReport, error)
}

// MaintenanceHandler is invoked by an EventBridge schedule rule.
type MaintenanceHandler func(ctx context.Context, event events.CloudWatchEvent) (application.MaintenanceReport, error)

func NewMaintenanceHandler(runner MaintenanceRunner, logger ports.Logger) MaintenanceHandler {
	return func(ctx context.Context, event events.CloudWatchEvent) (application.MaintenanceReport, error) {
		var report application.MaintenanceReport
		err := xray.Capture(ctx, "Maintenance.Run", func(ctx context.Context) error {
			logger.Info(ctx, "maintenance triggered", "event_id", event.ID, "source", event.Source, "detail_type", event.DetailType)
			var err error
			report, err = runner.RunFullMaintenance(ctx)
			return err
		})
		if err != nil {
			logger.Error(ctx, "maintenance failed", "event_id", event.ID, "error", err)
			return report, fmt.Errorf("maintenance run %s: %w", event.ID, err)
		}
		return report, nil
	}
}
