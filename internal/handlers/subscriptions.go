package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/entitlement"
	"github.com/heartlinkapp/heartlink/internal/identity"
)

// SubscriptionsHandler serves the current entitlement and the admin write
// surface the external billing glue calls into.
type SubscriptionsHandler struct {
	service *entitlement.Service
	logger  *slog.Logger
}

// NewSubscriptionsHandler creates a subscriptions handler.
func NewSubscriptionsHandler(log *slog.Logger, service *entitlement.Service) *SubscriptionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SubscriptionsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "subscriptions")),
	}
}

// Register mounts the subscription routes.
func (h *SubscriptionsHandler) Register(e *echo.Echo) {
	e.GET("/subscriptions/me", h.GetMine)

	admin := e.Group("/subscriptions", auth.RequireAdmin())
	admin.PUT("/:user_id", h.Upsert)
	admin.DELETE("/:user_id", h.Cancel)
}

// GetMine returns the authenticated user's active entitlement.
func (h *SubscriptionsHandler) GetMine(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	ent, err := h.service.Current(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNoActivePlan) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"success":      false,
				"message":      "No active subscription",
				"requiresPlan": true,
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ent)
}

// Upsert replaces a user's subscription record (admin / billing glue only).
func (h *SubscriptionsHandler) Upsert(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("user_id"))
	if err := identity.ValidateID(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req entitlement.UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ent, err := h.service.Upsert(c.Request().Context(), userID, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ent)
}

// Cancel marks a user's active subscription canceled (admin / billing glue only).
func (h *SubscriptionsHandler) Cancel(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("user_id"))
	if err := identity.ValidateID(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Cancel(c.Request().Context(), userID); err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no active subscription")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
