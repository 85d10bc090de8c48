package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"admin-rbac/internal/authz"
	"admin-rbac/internal/domain"
)

type Authorizer interface {
	Authorize(ctx context.Context, email, resource, action string) (bool, error)
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// NamespaceGuard keeps callers inside the namespace their role belongs to.
// Browsers are sent to their own dashboard; API clients get 403.
func NamespaceGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := IdentityFrom(c)
			path := c.Request().URL.Path
			if authz.CanEnter(id.Role, path) {
				return next(c)
			}
			dashboard := authz.DashboardFor(id.Role)
			if wantsHTML(c) && authz.CanEnter(id.Role, dashboard) {
				return c.Redirect(http.StatusFound, dashboard)
			}
			return c.JSON(http.StatusForbidden, map[string]string{
				"error":     domain.ErrPermissionDeny.Error(),
				"dashboard": dashboard,
			})
		}
	}
}

// RequirePermission checks the caller's stored permission snapshot.
func RequirePermission(a Authorizer, resource domain.Resource, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			allowed, err := a.Authorize(c.Request().Context(), id.Email, string(resource), action.String())
			if err != nil {
				return err
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, map[string]string{"error": domain.ErrPermissionDeny.Error()})
			}
			return next(c)
		}
	}
}
