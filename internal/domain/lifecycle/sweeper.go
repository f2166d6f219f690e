package lifecycle

import (
	"context"
	"time"

	"portfolio/pkg/logger"
)

// Purger is implemented by every Manager.
type Purger interface {
	EntityType() string
	PurgeExpired(ctx context.Context) (int, error)
}

// Sweeper periodically purges soft-deleted records whose restoration window
// has passed.
type Sweeper struct {
	purgers  []Purger
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates a Sweeper. A non-positive interval defaults to one hour.
func NewSweeper(interval time.Duration, log *logger.Logger, purgers ...Purger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{
		purgers:  purgers,
		interval: interval,
		log:      log.WithComponent("sweeper"),
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs the purgers one after another, in the order given, and
// returns the number of purged records per entity type. Referencing types
// must come before the types they reference.
func (s *Sweeper) SweepOnce(ctx context.Context) map[string]int {
	result := make(map[string]int, len(s.purgers))

	for _, p := range s.purgers {
		if ctx.Err() != nil {
			break
		}

		n, err := p.PurgeExpired(ctx)
		if err != nil {
			s.log.Errorw("purge expired failed", "entity_type", p.EntityType(), "purged", n, "error", err)
		}
		if n > 0 {
			s.log.Infow("purged expired records", "entity_type", p.EntityType(), "count", n)
		}
		result[p.EntityType()] += n
	}
	return result
}
