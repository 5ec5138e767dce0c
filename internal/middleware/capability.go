package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-zone-service/internal/auth"
)

// RequireCapability enforces that the authenticated role grants the given
// capability. It assumes JWTAuth already placed the role in the context.
// This guard is a fast rejection for the UI, not the security boundary;
// every mutating repository re-checks the stored role on its own.
func RequireCapability(cap auth.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(auth.Role)
			if !ok || !auth.Can(role, cap) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
