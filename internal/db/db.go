// Package db provides the PostgreSQL connection pool and migration runner.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartlinkapp/heartlink/internal/config"
)

// Open creates a pgx connection pool for the given configuration.
func Open(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, DSN(cfg))
}
