package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/identity"
	"github.com/heartlinkapp/heartlink/internal/users"
)

// UsersHandler serves the current-user endpoint and the admin account surface.
type UsersHandler struct {
	service *users.Service
	logger  *slog.Logger
}

// NewUsersHandler creates a users handler.
func NewUsersHandler(log *slog.Logger, service *users.Service) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		service: service,
		logger:  log.With(slog.String("handler", "users")),
	}
}

// Register mounts the user routes. Everything under the /users group except
// /users/me requires the admin role.
func (h *UsersHandler) Register(e *echo.Echo) {
	e.GET("/users/me", h.GetMe)

	admin := e.Group("/users", auth.RequireAdmin())
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.PUT("/:id/suspension", h.SetSuspended)
}

// GetMe returns the authenticated user's account.
func (h *UsersHandler) GetMe(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// List returns all accounts (admin only).
func (h *UsersHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// Create registers a new account (admin only).
func (h *UsersHandler) Create(c echo.Context) error {
	var req users.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, user)
}

type suspensionRequest struct {
	Suspended bool `json:"suspended"`
}

// SetSuspended flips an account's suspension flag (admin only). The change
// is observed on the target's very next request.
func (h *UsersHandler) SetSuspended(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if err := identity.ValidateID(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req suspensionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.SetSuspended(c.Request().Context(), id, req.Suspended)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}
