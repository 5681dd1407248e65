package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/heartlinkapp/heartlink/internal/identity"
)

var (
	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSuspendedUser indicates the account is suspended.
	ErrSuspendedUser = errors.New("user is suspended")
	// ErrUnknownIdentity indicates a token subject with no backing account.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// Service owns account reads and writes and acts as the identity store
// adapter for the session authenticator.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a user service on top of the given store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "users")),
	}
}

// Login validates credentials and returns the account. Suspended accounts
// cannot log in.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if user.Suspended {
		return User{}, ErrSuspendedUser
	}
	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("touch last login failed", slog.Any("error", err))
	}
	return user, nil
}

// Get returns the account for the given user ID.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.store.GetByID(ctx, userID)
}

// ResolveIdentity fetches the live identity for an authenticated user ID.
// It reads the store on every call; suspension state is never cached.
func (s *Service) ResolveIdentity(ctx context.Context, userID string) (identity.Identity, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return identity.Identity{}, ErrUnknownIdentity
		}
		return identity.Identity{}, err
	}
	return identity.Identity{
		ID:        user.ID,
		Role:      user.Role,
		Suspended: user.Suspended,
	}, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// Create registers a new account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return User{}, fmt.Errorf("username is required")
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return User{}, fmt.Errorf("password is required")
	}
	role, err := identity.NormalizeRole(req.Role)
	if err != nil {
		return User{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hashed),
		Role:         role,
	})
}

// SetSuspended flips the suspension flag. The change is observed by the very
// next authorization check for that user.
func (s *Service) SetSuspended(ctx context.Context, userID string, suspended bool) (User, error) {
	user, err := s.store.SetSuspended(ctx, userID, suspended)
	if err != nil {
		return User{}, err
	}
	s.logger.Info("suspension updated",
		slog.String("user_id", userID),
		slog.Bool("suspended", suspended),
	)
	return user, nil
}

// EnsureAdmin seeds the initial admin account when the users table is empty.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return fmt.Errorf("admin username/password required in config.toml")
	}
	if password == "change-your-password-here" {
		s.logger.Warn("admin password uses default placeholder; please update config.toml")
	}
	_, err = s.Create(ctx, CreateUserRequest{
		Username: username,
		Password: password,
		Email:    email,
		Role:     identity.RoleAdmin,
	})
	if err != nil {
		return err
	}
	s.logger.Info("Admin user created", slog.String("username", username))
	return nil
}
