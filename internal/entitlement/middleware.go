package entitlement

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
)

const entitlementContextKey = "entitlement"

// Require builds a guard that denies the request unless the authenticated
// identity holds an active subscription at or above min (pass the zero Plan
// to accept any active plan). Denials carry requiresPlan so the client can
// open its upsell flow; currentPlan is included when the tier is merely too
// low. It must run after the session guards.
func Require(svc *Service, min Plan) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromContext(c)
			if err != nil {
				return auth.NotAuthorized(c)
			}
			ent, err := svc.Authorize(c.Request().Context(), userID, min)
			if err != nil {
				var insufficient *InsufficientPlanError
				switch {
				case errors.Is(err, ErrNoActivePlan):
					return c.JSON(http.StatusForbidden, echo.Map{
						"success":      false,
						"message":      "An active subscription is required",
						"requiresPlan": true,
					})
				case errors.As(err, &insufficient):
					return c.JSON(http.StatusForbidden, echo.Map{
						"success":      false,
						"message":      "Your plan does not include this feature",
						"requiresPlan": true,
						"currentPlan":  string(insufficient.Current),
					})
				default:
					return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
			}
			c.Set(entitlementContextKey, ent)
			return next(c)
		}
	}
}

// FromContext returns the entitlement attached by Require.
func FromContext(c echo.Context) (Entitlement, bool) {
	ent, ok := c.Get(entitlementContextKey).(Entitlement)
	return ent, ok
}
