package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/store"
)

// HousekeepingService periodically purges denylist entries for tokens that
// have expired anyway, and stale password resets.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes expired records. Each purge is independent; one failing
// doesn't stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now()

	revoked, err := s.Store.RevokedTokens().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired revoked tokens", "error", err)
	}

	resets, err := s.Store.PasswordResets().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired password resets", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"revoked_tokens_deleted", revoked,
		"password_resets_deleted", resets,
	)
}
