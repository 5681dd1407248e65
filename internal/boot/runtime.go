// Package boot provides runtime configuration and dependency wiring for the server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/heartlinkapp/heartlink/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address, live-channel timings).
// Values may be overridden by environment variables (e.g. HTTP_ADDR, JWT_SECRET).
type RuntimeConfig struct {
	JWTSecret      string
	JWTExpiresIn   time.Duration
	ServerAddr     string
	AllowedOrigins []string
	HandshakeGrace time.Duration
	WriteTimeout   time.Duration
	OutboundBuffer int
	SweepSpec      string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	secret := cfg.Auth.JWTSecret
	if value := os.Getenv("JWT_SECRET"); value != "" {
		secret = value
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}

	handshakeGrace, err := time.ParseDuration(cfg.Live.HandshakeGrace)
	if err != nil {
		return nil, fmt.Errorf("invalid handshake grace: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.Live.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}

	outboundBuffer := cfg.Live.OutboundBuffer
	if outboundBuffer <= 0 {
		outboundBuffer = config.DefaultOutboundBuffer
	}

	ret := &RuntimeConfig{
		JWTSecret:      secret,
		JWTExpiresIn:   jwtExpiresIn,
		ServerAddr:     cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HandshakeGrace: handshakeGrace,
		WriteTimeout:   writeTimeout,
		OutboundBuffer: outboundBuffer,
		SweepSpec:      cfg.Subscriptions.SweepSpec,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}

	return ret, nil
}
