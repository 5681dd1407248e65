// Package server provides the HTTP server and Echo setup for the HeartLink API.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/boot"
)

// Server is the HTTP server (Echo) with session guards and registered handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// NewServer builds the Echo server with recovery, request logging, CORS, the
// session guards (token verification plus per-request identity refresh), and
// the given handlers. The /ws route skips the guards and authenticates its
// handshake itself.
func NewServer(log *slog.Logger, rc *boot.RuntimeConfig, resolver auth.IdentityResolver,
	handlers ...Handler,
) *Server {
	addr := rc.ServerAddr
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))
	if len(rc.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     rc.AllowedOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}

	skipper := func(c echo.Context) bool {
		path := c.Request().URL.Path
		return path == "/ping" || path == "/health" || path == "/auth/login" || path == "/ws"
	}
	e.Use(auth.JWTMiddleware(rc.JWTSecret, skipper))
	e.Use(auth.RequireIdentity(resolver, skipper))

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: log.With(slog.String("component", "server")),
	}
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
