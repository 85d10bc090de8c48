package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"admin-rbac/internal/ports"
)

// RequestLogger logs one line per request. Server errors log at error level.
func RequestLogger(logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			ctx := c.Request().Context()
			args := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"route_pattern", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(started).String(),
			}
			if id, ok := IdentityFrom(c); ok {
				args = append(args, "user_email", id.Email, "role", id.Role)
			}
			if c.Response().Status >= 500 {
				logger.Error(ctx, "http request", append(args, "error", err)...)
				return nil
			}
			logger.Info(ctx, "http request", args...)
			return nil
		}
	}
}
