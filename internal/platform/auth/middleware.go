package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Checker validates a presented raw API key.
type Checker interface {
	Check(raw string) bool
}

// Mode selects whether the API-key gate runs at all.
type Mode string

const (
	ModeDisabled Mode = ""
	ModeOff      Mode = "disabled"
	ModeAPIKey   Mode = "api_key"
)

// Middleware returns an echo middleware enforcing a bearer API key when
// mode is ModeAPIKey; any other mode is a no-op, matching config.ini's
// AUTH_MODE switch (§6 Configuration).
func Middleware(mode Mode, checker Checker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if mode != ModeAPIKey {
				return next(c)
			}
			raw := bearerToken(c.Request().Header.Get("Authorization"))
			if raw == "" {
				raw = c.Request().Header.Get("X-API-Key")
			}
			if raw == "" || !checker.Check(raw) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid api key")
			}
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
