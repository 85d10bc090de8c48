package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	adaptermiddleware "admin-rbac/internal/adapters/http/middleware"
	"admin-rbac/internal/authz"
	"admin-rbac/internal/domain"
)

type Middleware struct {
	Auth          echo.MiddlewareFunc
	XRay          echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
	Metrics       echo.MiddlewareFunc
}

type Handlers struct {
	System        *SystemHandler
	Dashboard     *DashboardHandler
	Roles         *RolesHandler
	Maintenance   *MaintenanceHandler
	Authorization *AuthorizationHandler
	// Authorizer backs the per-route permission checks.
	Authorizer adaptermiddleware.Authorizer
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func newEcho(m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(e)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if m.Metrics != nil {
		e.Use(m.Metrics)
	}
	if m.XRay != nil {
		e.Use(m.XRay)
	}
	if m.RequestLogger != nil {
		e.Use(m.RequestLogger)
	}
	return e
}

// NewRouter mounts the public probes, the identity routes and the two
// guarded namespaces.
func NewRouter(h Handlers, m Middleware) *echo.Echo {
	e := newEcho(m)
	e.GET("/healthz", h.System.Health)
	e.GET("/system/status", h.System.Status)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	var auth []echo.MiddlewareFunc
	if m.Auth != nil {
		auth = append(auth, m.Auth)
	}
	e.GET("/dashboard", h.Dashboard.Redirect, auth...)
	e.POST("/authorize", h.Authorization.Authorize, auth...)

	guarded := make([]echo.MiddlewareFunc, 0, len(auth)+1)
	guarded = append(guarded, auth...)
	guarded = append(guarded, adaptermiddleware.NamespaceGuard())
	permit := func(res domain.Resource, act domain.Action) echo.MiddlewareFunc {
		return adaptermiddleware.RequirePermission(h.Authorizer, res, act)
	}

	admin := e.Group(authz.AdminNamespace, guarded...)
	admin.GET("", h.Dashboard.Landing)
	admin.GET("/roles", h.Roles.List, permit(domain.ResourceRoles, domain.ActionRead))
	admin.GET("/roles/:name", h.Roles.Get, permit(domain.ResourceRoles, domain.ActionRead))
	admin.POST("/maintenance", h.Maintenance.RunAll, permit(domain.ResourceSettings, domain.ActionSystem))
	admin.POST("/maintenance/:job", h.Maintenance.RunJob, permit(domain.ResourceSettings, domain.ActionSystem))

	agent := e.Group(authz.AgentNamespace, guarded...)
	agent.GET("/dashboard", h.Dashboard.Landing)
	return e
}
