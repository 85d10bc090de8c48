package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Mode string

const (
	ModeNone    Mode = "none"
	ModeHeader  Mode = "header"
	ModeCognito Mode = "cognito"
)

// Header mode trusts these headers as set by an upstream proxy.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

func ParseAuthMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return ModeNone, nil
	case ModeNone, ModeHeader, ModeCognito:
		return mode, nil
	default:
		return "", errors.New("invalid auth mode")
	}
}

// AuthMiddleware establishes the caller Identity. In ModeNone requests pass
// through anonymously and identity-dependent routes deny them.
func AuthMiddleware(mode Mode, cognito echo.MiddlewareFunc) (echo.MiddlewareFunc, error) {
	switch mode {
	case ModeNone, ModeHeader:
	case ModeCognito:
		if cognito == nil {
			return nil, errors.New("cognito middleware is required when AUTH_MODE=cognito")
		}
		return cognito, nil
	default:
		return nil, errors.New("invalid auth mode")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if mode == ModeNone {
				return next(c)
			}
			email := strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail))
			if email == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderUserEmail + " header"})
			}
			SetIdentity(c, Identity{
				Email: email,
				Role:  strings.TrimSpace(c.Request().Header.Get(HeaderUserRole)),
			})
			return next(c)
		}
	}, nil
}
