package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/boot"
	"github.com/heartlinkapp/heartlink/internal/identity"
	"github.com/heartlinkapp/heartlink/internal/live"
	"github.com/heartlinkapp/heartlink/internal/server"
)

// WSHandler upgrades /ws to a live channel. The handshake accepts the same
// credential formats as the HTTP guards (cookie, bearer header, token query
// parameter); a socket that arrives without one must send an auth frame
// within the handshake grace period or it is closed. Unauthenticated sockets
// are never registered.
type WSHandler struct {
	registry *live.Registry
	resolver auth.IdentityResolver
	upgrader websocket.Upgrader

	jwtSecret    string
	grace        time.Duration
	writeTimeout time.Duration
	buffer       int
	logger       *slog.Logger
}

// NewWSHandler creates the live-channel handler.
func NewWSHandler(log *slog.Logger, rc *boot.RuntimeConfig, registry *live.Registry, resolver auth.IdentityResolver) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	allowed := rc.AllowedOrigins
	return &WSHandler{
		registry: registry,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return server.OriginAllowed(r.Header.Get("Origin"), allowed)
			},
		},
		jwtSecret:    rc.JWTSecret,
		grace:        rc.HandshakeGrace,
		writeTimeout: rc.WriteTimeout,
		buffer:       rc.OutboundBuffer,
		logger:       log.With(slog.String("handler", "ws")),
	}
}

// Register mounts GET /ws on the Echo instance.
func (h *WSHandler) Register(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve authenticates and registers one live channel, then blocks reading
// until the client disconnects. Disconnect is the only removal trigger.
func (h *WSHandler) Serve(c echo.Context) error {
	credential, _ := auth.CredentialFromRequest(c.Request())
	if credential != "" {
		// Credential arrived with the upgrade request: reject bad ones
		// before committing to the socket.
		if _, err := h.authenticate(c.Request().Context(), credential); err != nil {
			return auth.NotAuthorized(c)
		}
	}

	sock, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	ident, err := h.handshake(c.Request().Context(), sock, credential)
	if err != nil {
		h.logger.Debug("handshake rejected",
			slog.String("remote", sock.RemoteAddr().String()),
			slog.Any("error", err),
		)
		deadline := time.Now().Add(time.Second)
		_ = sock.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not authorized"), deadline)
		_ = sock.Close()
		return nil
	}

	conn := live.NewWSConn(h.logger, sock, h.buffer, h.writeTimeout)
	h.registry.Register(ident.ID, conn)
	go conn.WritePump()

	h.logger.Info("channel connected",
		slog.String("identity_id", ident.ID),
		slog.String("conn_id", conn.ID()),
	)

	h.readLoop(sock)

	h.registry.Unregister(conn)
	conn.Close()

	h.logger.Info("channel disconnected",
		slog.String("identity_id", ident.ID),
		slog.String("conn_id", conn.ID()),
	)
	return nil
}

// handshake resolves the channel's identity, waiting for an auth frame when
// the upgrade request carried no credential.
func (h *WSHandler) handshake(ctx context.Context, sock *websocket.Conn, credential string) (identity.Identity, error) {
	if credential == "" {
		frame, err := h.awaitAuthFrame(sock)
		if err != nil {
			return identity.Identity{}, err
		}
		credential = frame
	}
	return h.authenticate(ctx, credential)
}

// authenticate runs the full session check: token verification plus a fresh
// identity read, so a suspended account cannot open a channel.
func (h *WSHandler) authenticate(ctx context.Context, credential string) (identity.Identity, error) {
	userID, err := auth.ParseToken(credential, h.jwtSecret)
	if err != nil {
		return identity.Identity{}, err
	}
	ident, err := h.resolver.ResolveIdentity(ctx, userID)
	if err != nil {
		return identity.Identity{}, err
	}
	if ident.Suspended {
		return identity.Identity{}, fmt.Errorf("identity %s is suspended", ident.ID)
	}
	return ident, nil
}

type authFrame struct {
	Token string `json:"token"`
}

func (h *WSHandler) awaitAuthFrame(sock *websocket.Conn) (string, error) {
	if err := sock.SetReadDeadline(time.Now().Add(h.grace)); err != nil {
		return "", err
	}
	var frame authFrame
	if err := sock.ReadJSON(&frame); err != nil {
		return "", fmt.Errorf("auth frame: %w", err)
	}
	if err := sock.SetReadDeadline(time.Time{}); err != nil {
		return "", err
	}
	if frame.Token == "" {
		return "", auth.ErrNoCredential
	}
	return frame.Token, nil
}

func (h *WSHandler) readLoop(sock *websocket.Conn) {
	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			return
		}
	}
}
