package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/identity"
	"github.com/heartlinkapp/heartlink/internal/live"
)

// NotifyHandler is the service-to-service surface external business logic
// (match making, message persistence) calls to push live notifications.
// Delivery is best-effort; these endpoints accept the event regardless of
// whether any channel is currently open.
type NotifyHandler struct {
	dispatcher *live.Dispatcher
	logger     *slog.Logger
}

// NewNotifyHandler creates a notify handler.
func NewNotifyHandler(log *slog.Logger, dispatcher *live.Dispatcher) *NotifyHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotifyHandler{
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "notify")),
	}
}

// Register mounts the notify routes, admin-gated.
func (h *NotifyHandler) Register(e *echo.Echo) {
	g := e.Group("/notify", auth.RequireAdmin())
	g.POST("/match", h.Match)
	g.POST("/message", h.Message)
}

type matchNotifyRequest struct {
	MatchID string `json:"match_id"`
	UserA   string `json:"user_a"`
	UserB   string `json:"user_b"`
}

type matchPayload struct {
	MatchID     string `json:"match_id"`
	OtherUserID string `json:"other_user_id"`
}

// Match emits a new_match event to both participants. Each participant's
// payload names the other, so the client can navigate straight to the match.
func (h *NotifyHandler) Match(c echo.Context) error {
	var req matchNotifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.MatchID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "match id is required")
	}
	if err := identity.ValidateID(req.UserA); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := identity.ValidateID(req.UserB); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, pair := range [][2]string{{req.UserA, req.UserB}, {req.UserB, req.UserA}} {
		evt, err := live.NewEvent(pair[0], live.EventNewMatch, matchPayload{
			MatchID:     req.MatchID,
			OtherUserID: pair[1],
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.dispatcher.Emit(evt)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"success": true})
}

type messageNotifyRequest struct {
	RecipientID    string `json:"recipient_id"`
	SenderID       string `json:"sender_id"`
	ConversationID string `json:"conversation_id"`
	Preview        string `json:"preview"`
}

type messagePayload struct {
	SenderID       string `json:"sender_id"`
	ConversationID string `json:"conversation_id"`
	Preview        string `json:"preview,omitempty"`
}

// Message emits a new_message event to the recipient.
func (h *NotifyHandler) Message(c echo.Context) error {
	var req messageNotifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := identity.ValidateID(req.RecipientID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	evt, err := live.NewEvent(req.RecipientID, live.EventNewMessage, messagePayload{
		SenderID:       req.SenderID,
		ConversationID: req.ConversationID,
		Preview:        req.Preview,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.dispatcher.Emit(evt)
	return c.JSON(http.StatusAccepted, echo.Map{"success": true})
}
