package entitlement

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no active subscription exists for the user.
var ErrNotFound = errors.New("subscription not found")

// Store is the persistence boundary for subscription records. The gate only
// reads through it; writes come from the external billing glue and the
// expiry sweeper.
type Store interface {
	GetActiveByUser(ctx context.Context, userID string) (Entitlement, error)
	Upsert(ctx context.Context, userID string, plan Plan, status string, periodEnd *time.Time) (Entitlement, error)
	Cancel(ctx context.Context, userID string) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}
