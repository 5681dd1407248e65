package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartlinkapp/heartlink/internal/db"
)

const userColumns = "id, username, email, password_hash, role, suspended, created_at, updated_at, last_login_at"

// PGStore is the PostgreSQL-backed account store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetByID(ctx context.Context, id string) (User, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", pgID)
	return scanUser(row)
}

func (s *PGStore) GetByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (s *PGStore) Create(ctx context.Context, user User) (User, error) {
	email := pgtype.Text{String: user.Email, Valid: user.Email != ""}
	row := s.pool.QueryRow(ctx,
		"INSERT INTO users (username, email, password_hash, role, suspended) VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		user.Username, email, user.PasswordHash, user.Role, user.Suspended,
	)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("username already taken: %s", user.Username)
		}
		return User{}, err
	}
	return created, nil
}

func (s *PGStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, user)
	}
	return items, rows.Err()
}

func (s *PGStore) SetSuspended(ctx context.Context, id string, suspended bool) (User, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		"UPDATE users SET suspended = $2, updated_at = now() WHERE id = $1 RETURNING "+userColumns,
		pgID, suspended,
	)
	return scanUser(row)
}

func (s *PGStore) TouchLastLogin(ctx context.Context, id string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = s.pool.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", pgID)
	return err
}

func (s *PGStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id          pgtype.UUID
		email       pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		lastLoginAt pgtype.Timestamptz
		user        User
	)
	err := row.Scan(&id, &user.Username, &email, &user.PasswordHash, &user.Role, &user.Suspended, &createdAt, &updatedAt, &lastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = db.UUIDString(id)
	user.Email = db.TextToString(email)
	user.CreatedAt = db.TimeFromPg(createdAt)
	user.UpdatedAt = db.TimeFromPg(updatedAt)
	user.LastLoginAt = db.TimeFromPg(lastLoginAt)
	return user, nil
}
