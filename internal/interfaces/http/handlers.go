package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"admin-rbac/internal/adapters/http/middleware"
	"admin-rbac/internal/application"
	"admin-rbac/internal/authz"
	"admin-rbac/internal/domain"
)

type RoleReader interface {
	List(ctx context.Context) ([]domain.Role, error)
	Get(ctx context.Context, name string) (domain.Role, error)
}

type PermissionReader interface {
	Authorize(ctx context.Context, email, resource, action string) (bool, error)
	Snapshot(ctx context.Context, email string) (domain.Matrix, error)
}

type InitChecker interface {
	IsSystemInitialized(ctx context.Context) (bool, error)
}

// MaintenanceRunner serializes manual runs with scheduled ones.
type MaintenanceRunner interface {
	RunNow(ctx context.Context) (application.MaintenanceReport, error)
	RunJob(ctx context.Context, job string) (application.JobResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func errorStatus(err error) int {
	var unknownRole *domain.UnknownRoleError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.As(err, &unknownRole):
		return stdhttp.StatusBadRequest
	case errors.Is(err, domain.ErrPermissionDeny):
		return stdhttp.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return stdhttp.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return stdhttp.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return stdhttp.StatusServiceUnavailable
	default:
		return stdhttp.StatusInternalServerError
	}
}

func handleError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == stdhttp.StatusInternalServerError {
		return c.JSON(status, map[string]string{"error": "internal error"})
	}
	if status == stdhttp.StatusServiceUnavailable {
		return c.JSON(status, map[string]string{"error": domain.ErrStoreUnavailable.Error()})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// ErrorHandler renders domain errors returned by handlers or middleware and
// leaves everything else to echo.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if c.Response().Committed || errors.As(err, &he) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		if herr := handleError(c, err); herr != nil {
			e.DefaultHTTPErrorHandler(herr, c)
		}
	}
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

type SystemHandler struct {
	checker InitChecker
	store   Pinger
}

// NewSystemHandler accepts a nil store; health then only reports liveness.
func NewSystemHandler(checker InitChecker, store Pinger) *SystemHandler {
	return &SystemHandler{checker: checker, store: store}
}

func (h *SystemHandler) Health(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Ping(c.Request().Context()); err != nil {
			return handleError(c, err)
		}
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) Status(c echo.Context) error {
	ok, err := h.checker.IsSystemInitialized(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]bool{"initialized": ok})
}

type DashboardHandler struct {
	permissions PermissionReader
}

func NewDashboardHandler(permissions PermissionReader) *DashboardHandler {
	return &DashboardHandler{permissions: permissions}
}

// Redirect sends the caller to the landing route of their role.
func (h *DashboardHandler) Redirect(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	route := authz.DashboardFor(id.Role)
	if wantsJSON(c) {
		return c.JSON(stdhttp.StatusOK, map[string]string{"route": route})
	}
	return c.Redirect(stdhttp.StatusFound, route)
}

// Landing describes the caller and the matrix they are evaluated against.
// It backs both namespace dashboards.
func (h *DashboardHandler) Landing(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	matrix, err := h.permissions.Snapshot(c.Request().Context(), id.Email)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]any{
		"email":       id.Email,
		"role":        id.Role,
		"dashboard":   authz.DashboardFor(id.Role),
		"permissions": matrix,
	})
}

type RolesHandler struct{ service RoleReader }

func NewRolesHandler(service RoleReader) *RolesHandler {
	return &RolesHandler{service: service}
}

func (h *RolesHandler) List(c echo.Context) error {
	roles, err := h.service.List(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, roles)
}

func (h *RolesHandler) Get(c echo.Context) error {
	role, err := h.service.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, role)
}

type MaintenanceHandler struct{ runner MaintenanceRunner }

func NewMaintenanceHandler(runner MaintenanceRunner) *MaintenanceHandler {
	return &MaintenanceHandler{runner: runner}
}

func (h *MaintenanceHandler) RunAll(c echo.Context) error {
	report, err := h.runner.RunNow(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, report)
}

func (h *MaintenanceHandler) RunJob(c echo.Context) error {
	result, err := h.runner.RunJob(c.Request().Context(), c.Param("job"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, result)
}

type AuthorizationHandler struct {
	service PermissionReader
}

func NewAuthorizationHandler(service PermissionReader) *AuthorizationHandler {
	return &AuthorizationHandler{service: service}
}

// Authorize evaluates a permission for the caller, or for another user when
// the caller holds users:read.
func (h *AuthorizationHandler) Authorize(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Resource string `json:"resource"`
		Action   string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	caller, ok := middleware.IdentityFrom(c)
	if !ok || caller.Email == "" {
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	ctx := c.Request().Context()
	if req.Email == "" {
		req.Email = caller.Email
	} else if !strings.EqualFold(req.Email, caller.Email) {
		allowed, err := h.service.Authorize(ctx, caller.Email, string(domain.ResourceUsers), domain.ActionRead.String())
		if err != nil {
			return handleError(c, err)
		}
		if !allowed {
			return handleError(c, domain.ErrPermissionDeny)
		}
	}
	allowed, err := h.service.Authorize(ctx, req.Email, req.Resource, req.Action)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]bool{"allowed": allowed})
}
