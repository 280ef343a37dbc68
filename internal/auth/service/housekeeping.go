package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/store"
)

// HousekeepingService periodically deletes expired refresh token rows.
// Revocation and expiry decisions never depend on the sweep (expiry is
// checked at redemption); this only keeps the table from growing without
// bound under long-running deployments.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// sweep deletes rows whose expiry has passed. Failures are logged and left
// for the next run.
func (s *HousekeepingService) sweep(ctx context.Context) {
	if err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, time.Now()); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
		return
	}
	s.Logger.Debug("deleted expired refresh tokens")
}
