package middleware

import (
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
)

// XRayMiddleware opens one segment per request and annotates it with the
// matched route and the caller role once the handler chain returns.
func XRayMiddleware(segmentName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, seg := xray.BeginSegment(c.Request().Context(), segmentName)
			c.SetRequest(c.Request().Clone(ctx))
			err := next(c)
			_ = seg.AddAnnotation("route", c.Path())
			if id, ok := IdentityFrom(c); ok {
				_ = seg.AddAnnotation("role", id.Role)
			}
			seg.Close(err)
			return err
		}
	}
}
