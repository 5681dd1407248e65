package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/identity"
)

// UserIDFromContext extracts the authenticated user ID from the request
// context: the resolved identity when present, otherwise the token subject.
func UserIDFromContext(c echo.Context) (string, error) {
	if ident, ok := c.Get(identityContextKey).(identity.Identity); ok && ident.ID != "" {
		return ident.ID, nil
	}
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return subject, nil
}

// IdentityFromContext returns the identity attached by RequireIdentity.
func IdentityFromContext(c echo.Context) (identity.Identity, error) {
	ident, ok := c.Get(identityContextKey).(identity.Identity)
	if !ok || ident.ID == "" {
		return identity.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "identity not resolved")
	}
	return ident, nil
}
