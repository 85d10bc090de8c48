package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
)

type mockLogger struct {
	lastCtx   context.Context
	lastMsg   string
	lastLevel string
	lastArgs  []any
}

func (m *mockLogger) record(level string, ctx context.Context, msg string, args []any) {
	m.lastLevel = level
	m.lastCtx = ctx
	m.lastMsg = msg
	m.lastArgs = args
}

func (m *mockLogger) Info(ctx context.Context, msg string, args ...any) {
	m.record("info", ctx, msg, args)
}

func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.record("error", ctx, msg, args)
}

func (m *mockLogger) Warn(context.Context, string, ...any)  {}
func (m *mockLogger) Debug(context.Context, string, ...any) {}

func (m *mockLogger) keys() map[string]any {
	out := map[string]any{}
	for i := 0; i < len(m.lastArgs)-1; i += 2 {
		if k, ok := m.lastArgs[i].(string); ok {
			out[k] = m.lastArgs[i+1]
		}
	}
	return out
}

func TestRequestLogger_LogsExpectedFields(t *testing.T) {
	logger := &mockLogger{}
	mw := RequestLogger(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/admin/roles")

	h := mw(func(c echo.Context) error {
		SetIdentity(c, Identity{Email: "ops@example.com", Role: "Manager"})
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if logger.lastMsg != "http request" || logger.lastLevel != "info" {
		t.Fatalf("unexpected log line: %s %s", logger.lastLevel, logger.lastMsg)
	}

	keys := logger.keys()
	for _, expected := range []string{"method", "path", "route_pattern", "status", "duration", "user_email", "role"} {
		if _, ok := keys[expected]; !ok {
			t.Fatalf("missing expected key %s in args: %v", expected, logger.lastArgs)
		}
	}
}

func TestRequestLogger_ServerErrorsLogAtErrorLevel(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/maintenance", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestLogger(logger)(func(c echo.Context) error {
		return errors.New("boom")
	})

	if err := h(c); err != nil {
		t.Fatalf("error should be handled by the logger middleware: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if logger.lastLevel != "error" {
		t.Fatalf("expected error level, got %s", logger.lastLevel)
	}
	if logger.keys()["status"] != http.StatusInternalServerError {
		t.Fatalf("expected logged status 500: %v", logger.lastArgs)
	}
}

func TestRequestLogger_PassesContextWithXRaySegment(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := XRayMiddleware("admin-rbac-test")(RequestLogger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if xray.GetSegment(logger.lastCtx) == nil {
		t.Fatalf("expected xray segment in logged context")
	}
}
