package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
)

// HousekeepingService periodically sweeps expired refresh tokens so the
// table only holds sessions that can still rotate.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep immediately and then on every tick. It does not block.
// Starting twice, or after Stop, does nothing.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-flight sweep has finished. It returns at once when
// the service was never started and is safe to call more than once.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if !started {
		return
	}
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes refresh tokens whose expiry has passed.
func (s *HousekeepingService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, s.Now())
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", slogx.Err(err))
		return 0, err
	}
	s.Logger.Info("housekeeping cleanup completed", "refresh_tokens_deleted", n)
	return n, nil
}
