package auth

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/heartlinkapp/heartlink/internal/identity"
)

const (
	tokenContextKey    = "user"
	identityContextKey = "identity"
)

// IdentityResolver resolves a durable user id to its live identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (identity.Identity, error)
}

// JWTMiddleware verifies the request credential and stores the parsed token
// in the request context. A single extractor enforces source precedence: when
// both a cookie and a bearer header are present only the cookie is consulted,
// even if it is invalid. All failures produce the same 401 body so the caller
// cannot tell which check failed.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:    skipper,
		SigningKey: []byte(secret),
		ContextKey: tokenContextKey,
		TokenLookupFuncs: []middleware.ValuesExtractor{
			func(c echo.Context) ([]string, error) {
				credential, err := CredentialFromRequest(c.Request())
				if err != nil {
					return nil, err
				}
				return []string{credential}, nil
			},
		},
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return NotAuthorized(c)
		},
	})
}

// RequireIdentity re-reads the identity behind the verified token on every
// request, so a suspension or deletion takes effect on the very next call.
// There is no session cache.
func RequireIdentity(resolver IdentityResolver, skipper middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			userID, err := UserIDFromContext(c)
			if err != nil {
				return NotAuthorized(c)
			}
			ident, err := resolver.ResolveIdentity(c.Request().Context(), userID)
			if err != nil {
				return NotAuthorized(c)
			}
			if ident.Suspended {
				return NotAuthorized(c)
			}
			c.Set(identityContextKey, ident)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose resolved identity is not an admin.
// It must run after RequireIdentity.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, err := IdentityFromContext(c)
			if err != nil {
				return NotAuthorized(c)
			}
			if !ident.IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "Admin access required",
				})
			}
			return next(c)
		}
	}
}

// NotAuthorized writes the uniform 401 body used for every authentication
// failure, regardless of cause.
func NotAuthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"message": "Not authorized",
	})
}
