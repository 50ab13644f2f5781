package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

// ClaimsContextKey is the echo context key holding the verified *jwt.Claims
const ClaimsContextKey = "session_claims"

// CallTokenAuth returns an Echo middleware that requires the session token of
// the call named by the :call_id path parameter. The token is read from the
// Authorization header, then from the token query parameter.
func CallTokenAuth(tokens *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := tokens.ValidateSessionToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			if callID := c.Param("call_id"); callID != "" && !strings.EqualFold(callID, claims.CallID) {
				return echo.NewHTTPError(http.StatusForbidden, "Token does not grant access to this call")
			}

			c.Set(ClaimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims set by CallTokenAuth
func ClaimsFrom(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
	return claims, ok
}

func extractToken(c echo.Context) string {
	// Expected format: "Bearer <token>"
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	return strings.TrimSpace(c.QueryParam("token"))
}
