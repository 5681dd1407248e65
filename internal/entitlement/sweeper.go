package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically marks lapsed subscriptions inactive so the gate's
// single store read stays authoritative without per-request expiry checks.
type Sweeper struct {
	cron    *cron.Cron
	service *Service
	logger  *slog.Logger
}

// NewSweeper creates a sweeper running svc.ExpireLapsed on the given cron
// spec (e.g. "@every 5m").
func NewSweeper(log *slog.Logger, svc *Service, spec string) (*Sweeper, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Sweeper{
		cron:    cron.New(),
		service: svc,
		logger:  log.With(slog.String("component", "subscription-sweeper")),
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the sweep schedule.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.service.ExpireLapsed(ctx, time.Now())
	if err != nil {
		s.logger.Warn("expiry sweep failed", slog.Any("error", err))
		return
	}
	if expired > 0 {
		s.logger.Info("expired lapsed subscriptions", slog.Int64("count", expired))
	}
}
