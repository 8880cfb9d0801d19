package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const sweepBatchSize = 100

// Sweeper periodically reclaims expired holds. Touchpoint sweeps (slot
// listing, pre-submit) handle the common case; this loop is the safety net
// for slots nobody looks at anymore.
type Sweeper struct {
	holds    *HoldService
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(holds *HoldService, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		holds:    holds,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			freed, err := s.holds.SweepExpired(ctx, sweepBatchSize)
			if err != nil {
				s.logger.Error().Err(err).Msg("hold sweep failed")
				continue
			}
			if freed > 0 {
				s.logger.Info().Int("freed", freed).Msg("reclaimed expired holds")
			}
		}
	}
}
