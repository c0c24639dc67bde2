package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type pendingExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

// Scheduler runs the expire-pending sweep on a fixed interval. A failed
// sweep is logged and the loop keeps going; nothing else depends on it.
type Scheduler struct {
	svc      pendingExpirer
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(svc pendingExpirer, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. One sweep fires immediately so a
// restart doesn't wait a full interval to catch up.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("sweep scheduler started")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweep scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.svc.ExpirePending(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expire-pending sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("cancelled", n).Msg("expire-pending sweep done")
	}
}
