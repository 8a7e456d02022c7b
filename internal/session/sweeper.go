package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs Sweep on a fixed interval.
type Sweeper struct {
	sessions *Store
	interval time.Duration
}

// Sweeper returns a sweeper using the configured SweepInterval.
func (s *Store) Sweeper() *Sweeper {
	return &Sweeper{sessions: s, interval: s.cfg.SweepInterval}
}

// Interval returns the time between sweeps.
func (w *Sweeper) Interval() time.Duration { return w.interval }

// Run sweeps every interval until ctx is done. Sweep failures are logged
// and do not stop the loop. Run must return before the store is closed.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("session sweeper started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.sessions.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.Error("session sweep failed", "error", err)
			}
		}
	}
}
