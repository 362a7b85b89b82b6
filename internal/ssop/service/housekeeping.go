package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/store"
)

// HousekeepingService periodically sweeps expired artifacts so that
// abandoned interactions, codes and tokens do not accumulate between reads.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// OnSweep, when set, is told how many records each sweep removed.
	OnSweep func(removed int)

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to five minutes.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop signals the worker and waits for an in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep removes expired records once and returns how many were deleted.
func (s *HousekeepingService) Sweep(ctx context.Context) int {
	n, err := s.Store.DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired artifacts", "error", err)
		return 0
	}

	if s.OnSweep != nil {
		s.OnSweep(n)
	}
	s.Logger.Debug("housekeeping sweep completed", "removed", n)
	return n
}
