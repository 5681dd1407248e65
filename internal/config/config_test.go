package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heartlinkapp/heartlink/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != config.DefaultHTTPAddr {
		t.Fatalf("addr = %q, want %q", cfg.Server.Addr, config.DefaultHTTPAddr)
	}
	if cfg.Auth.JWTExpiresIn != config.DefaultJWTExpiresIn {
		t.Fatalf("jwt expiry = %q, want %q", cfg.Auth.JWTExpiresIn, config.DefaultJWTExpiresIn)
	}
	if cfg.Live.OutboundBuffer != config.DefaultOutboundBuffer {
		t.Fatalf("outbound buffer = %d, want %d", cfg.Live.OutboundBuffer, config.DefaultOutboundBuffer)
	}
	if cfg.Subscriptions.SweepSpec != config.DefaultSweepSpec {
		t.Fatalf("sweep spec = %q, want %q", cfg.Subscriptions.SweepSpec, config.DefaultSweepSpec)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9999"
allowed_origins = ["https://app.example.com", "https://*.example.dev"]

[auth]
jwt_secret = "s3cret"

[live]
handshake_grace = "3s"

[postgres]
host = "db.internal"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q, want :9999", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("allowed origins = %v, want 2 entries", cfg.Server.AllowedOrigins)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret = %q, want s3cret", cfg.Auth.JWTSecret)
	}
	if cfg.Live.HandshakeGrace != "3s" {
		t.Fatalf("handshake grace = %q, want 3s", cfg.Live.HandshakeGrace)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Fatalf("pg host = %q, want db.internal", cfg.Postgres.Host)
	}
	// Untouched sections keep their defaults.
	if cfg.Postgres.Port != config.DefaultPGPort {
		t.Fatalf("pg port = %d, want default %d", cfg.Postgres.Port, config.DefaultPGPort)
	}
	if cfg.Live.WriteTimeout != config.DefaultWriteTimeout {
		t.Fatalf("write timeout = %q, want default %q", cfg.Live.WriteTimeout, config.DefaultWriteTimeout)
	}
}
