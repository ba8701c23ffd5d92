package hold

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval bounds how promptly lapsed holds are reclaimed; it is
// a tuning knob, not a correctness parameter, since commit and renew also
// check expiry lazily.
const DefaultSweepInterval = 5 * time.Second

// Sweeper periodically reclaims seats from holds whose TTL has passed. It
// runs independently of the request path: foreground operations never wait on
// a sweep.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(manager *Manager, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until the context is cancelled, sweeping once per interval.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired := s.manager.ExpireDue(ctx, time.Now())

	for _, hold := range expired {
		s.logger.Info("hold expired",
			"hold_id", hold.ID,
			"showing_id", hold.ShowingID,
			"seats", len(hold.SeatIDs),
		)
	}
}
