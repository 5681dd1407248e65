// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultJWTExpiresIn   = "24h"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "heartlink"
	DefaultPGSSLMode      = "disable"
	DefaultHandshakeGrace = "10s"
	DefaultWriteTimeout   = "5s"
	DefaultOutboundBuffer = 32
	DefaultSweepSpec      = "@every 5m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log           LogConfig           `toml:"log"`
	Server        ServerConfig        `toml:"server"`
	Admin         AdminConfig         `toml:"admin"`
	Auth          AuthConfig          `toml:"auth"`
	Postgres      PostgresConfig      `toml:"postgres"`
	Live          LiveConfig          `toml:"live"`
	Subscriptions SubscriptionsConfig `toml:"subscriptions"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address and allowed CORS origins.
// Origins may use a wildcard subdomain (e.g. https://*.vercel.app) to admit
// preview deployments on the same provider.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AdminConfig holds the initial admin account (username, password, email).
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// LiveConfig holds live-channel settings: how long an unauthenticated socket
// may wait for its auth frame, the per-connection write deadline, and the
// outbound queue depth before a slow client is dropped.
type LiveConfig struct {
	HandshakeGrace string `toml:"handshake_grace"`
	WriteTimeout   string `toml:"write_timeout"`
	OutboundBuffer int    `toml:"outbound_buffer"`
}

// SubscriptionsConfig holds the cron spec for the subscription expiry sweeper.
type SubscriptionsConfig struct {
	SweepSpec string `toml:"sweep_spec"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
			Email:    "you@example.com",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Live: LiveConfig{
			HandshakeGrace: DefaultHandshakeGrace,
			WriteTimeout:   DefaultWriteTimeout,
			OutboundBuffer: DefaultOutboundBuffer,
		},
		Subscriptions: SubscriptionsConfig{
			SweepSpec: DefaultSweepSpec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
