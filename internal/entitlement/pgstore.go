package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartlinkapp/heartlink/internal/db"
)

const subscriptionColumns = "id, user_id, plan, status, current_period_start, current_period_end, created_at, updated_at"

// PGStore is the PostgreSQL-backed subscription store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetActiveByUser(ctx context.Context, userID string) (Entitlement, error) {
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return Entitlement{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE user_id = $1 AND status = 'active'",
		pgID,
	)
	return scanEntitlement(row)
}

// Upsert replaces the user's active subscription with the given record.
// Any previously active row is marked canceled first so the partial unique
// index on (user_id) WHERE status = 'active' holds.
func (s *PGStore) Upsert(ctx context.Context, userID string, plan Plan, status string, periodEnd *time.Time) (Entitlement, error) {
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return Entitlement{}, ErrNotFound
	}
	end := pgtype.Timestamptz{}
	if periodEnd != nil {
		end = pgtype.Timestamptz{Time: *periodEnd, Valid: true}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Entitlement{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE subscriptions SET status = 'canceled', updated_at = now() WHERE user_id = $1 AND status = 'active'",
		pgID,
	); err != nil {
		return Entitlement{}, err
	}
	row := tx.QueryRow(ctx,
		"INSERT INTO subscriptions (user_id, plan, status, current_period_end) VALUES ($1, $2, $3, $4) RETURNING "+subscriptionColumns,
		pgID, string(plan), status, end,
	)
	ent, err := scanEntitlement(row)
	if err != nil {
		return Entitlement{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entitlement{}, err
	}
	return ent, nil
}

func (s *PGStore) Cancel(ctx context.Context, userID string) error {
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE subscriptions SET status = 'canceled', updated_at = now() WHERE user_id = $1 AND status = 'active'",
		pgID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE subscriptions SET status = 'inactive', updated_at = now() WHERE status = 'active' AND current_period_end IS NOT NULL AND current_period_end < $1",
		pgtype.Timestamptz{Time: now, Valid: true},
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEntitlement(row pgx.Row) (Entitlement, error) {
	var (
		id          pgtype.UUID
		userID      pgtype.UUID
		plan        string
		periodStart pgtype.Timestamptz
		periodEnd   pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		ent         Entitlement
	)
	err := row.Scan(&id, &userID, &plan, &ent.Status, &periodStart, &periodEnd, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entitlement{}, ErrNotFound
		}
		return Entitlement{}, err
	}
	ent.ID = db.UUIDString(id)
	ent.UserID = db.UUIDString(userID)
	ent.Plan = Plan(plan)
	ent.CurrentPeriodStart = db.TimeFromPg(periodStart)
	ent.CurrentPeriodEnd = db.TimeFromPg(periodEnd)
	ent.CreatedAt = db.TimeFromPg(createdAt)
	ent.UpdatedAt = db.TimeFromPg(updatedAt)
	return ent, nil
}
