package users

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Store is the persistence boundary for accounts. The core only ever reads
// identities through it during authorization; writes serve the login and
// admin surfaces.
type Store interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	List(ctx context.Context) ([]User, error)
	SetSuspended(ctx context.Context, id string, suspended bool) (User, error)
	TouchLastLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
