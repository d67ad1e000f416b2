package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"meditrip-api/internal/auth"
	"meditrip-api/internal/model"
)

const identityKey = "identity"

// Auth exchanges the bearer token for an identity and stores it on the
// request context. No token, no entry.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get("Authorization"))
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			id, err := auth.ParseToken(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireRole gates an endpoint on the token's role claim. This is routing
// only; the cores re-check ownership against stored rows.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "unauthorized")
		}
	}
}

// IdentityFrom returns the verified identity set by Auth, or nil.
func IdentityFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(identityKey).(*auth.Identity)
	return id
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
