package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/entitlement"
	"github.com/heartlinkapp/heartlink/internal/identity"
	"github.com/heartlinkapp/heartlink/internal/live"
)

const previewLimit = 80

// MessagesHandler accepts a message send from a subscribed user and pushes
// the new_message notification to the recipient. Message persistence is
// owned by an external service; this surface only gates and notifies.
type MessagesHandler struct {
	dispatcher   *live.Dispatcher
	entitlements *entitlement.Service
	logger       *slog.Logger
}

// NewMessagesHandler creates a messages handler.
func NewMessagesHandler(log *slog.Logger, dispatcher *live.Dispatcher, entitlements *entitlement.Service) *MessagesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MessagesHandler{
		dispatcher:   dispatcher,
		entitlements: entitlements,
		logger:       log.With(slog.String("handler", "messages")),
	}
}

// Register mounts POST /messages, requiring any active subscription.
func (h *MessagesHandler) Register(e *echo.Echo) {
	e.POST("/messages", h.Send, entitlement.Require(h.entitlements, ""))
}

type sendMessageRequest struct {
	RecipientID    string `json:"recipient_id"`
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// Send validates the message and emits new_message to the recipient.
func (h *MessagesHandler) Send(c echo.Context) error {
	senderID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := identity.ValidateID(req.RecipientID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message text is required")
	}

	preview := text
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	evt, err := live.NewEvent(req.RecipientID, live.EventNewMessage, messagePayload{
		SenderID:       senderID,
		ConversationID: req.ConversationID,
		Preview:        preview,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.dispatcher.Emit(evt)
	return c.JSON(http.StatusAccepted, echo.Map{"success": true})
}
