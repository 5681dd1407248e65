package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoActivePlan indicates the user holds no active subscription.
var ErrNoActivePlan = errors.New("no active plan")

// InsufficientPlanError indicates an active plan that ranks below the
// required minimum. Current and Required drive the client-side upsell flow.
type InsufficientPlanError struct {
	Current  Plan
	Required Plan
}

func (e *InsufficientPlanError) Error() string {
	return fmt.Sprintf("plan %s does not meet required plan %s", e.Current, e.Required)
}

// Service is the entitlement gate: a stateless, idempotent check over the
// single active subscription per user.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates an entitlement service on top of the given store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "entitlement")),
	}
}

// Authorize looks up the user's active entitlement and, when min is
// non-empty, requires the plan to rank at or above it. The entitlement is
// returned on success so callers can branch on the exact plan without a
// second lookup.
func (s *Service) Authorize(ctx context.Context, userID string, min Plan) (Entitlement, error) {
	ent, err := s.store.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entitlement{}, ErrNoActivePlan
		}
		return Entitlement{}, err
	}
	if min != "" && !ent.Plan.AtLeast(min) {
		return Entitlement{}, &InsufficientPlanError{Current: ent.Plan, Required: min}
	}
	return ent, nil
}

// Current returns the user's active entitlement without a minimum check.
func (s *Service) Current(ctx context.Context, userID string) (Entitlement, error) {
	return s.Authorize(ctx, userID, "")
}

// Upsert applies a subscription change reported by the external billing flow.
func (s *Service) Upsert(ctx context.Context, userID string, req UpsertRequest) (Entitlement, error) {
	plan := ParsePlan(req.Plan)
	if plan == "" {
		return Entitlement{}, fmt.Errorf("unknown plan: %s", req.Plan)
	}
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	ent, err := s.store.Upsert(ctx, userID, plan, status, req.CurrentPeriodEnd)
	if err != nil {
		return Entitlement{}, err
	}
	s.logger.Info("subscription updated",
		slog.String("user_id", userID),
		slog.String("plan", string(plan)),
		slog.String("status", status),
	)
	return ent, nil
}

// Cancel marks the user's active subscription canceled.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	if err := s.store.Cancel(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("subscription canceled", slog.String("user_id", userID))
	return nil
}

// ExpireLapsed marks active subscriptions whose period has ended inactive
// and returns how many rows changed.
func (s *Service) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	return s.store.ExpireLapsed(ctx, now)
}
