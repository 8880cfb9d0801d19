package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Almasmm/doctor-appointment-api/internal/storage/postgres"
)

// OutboxSource is the slice of the outbox repository the relay needs.
type OutboxSource interface {
	ListUnpublished(ctx context.Context, limit int) ([]postgres.StoredEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

const relayBatchSize = 50

// Relay polls the outbox and forwards pending events to the publisher.
// Events are marked published only after the broker accepts them, so a
// crash between publish and mark can replay an event; consumers must
// tolerate duplicates.
type Relay struct {
	source    OutboxSource
	publisher Publisher
	interval  time.Duration
	logger    zerolog.Logger
}

func NewRelay(source OutboxSource, publisher Publisher, interval time.Duration, logger zerolog.Logger) *Relay {
	return &Relay{
		source:    source,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.Error().Err(err).Msg("outbox relay drain failed")
			}
		}
	}
}

// Drain publishes one batch of pending events. A publish failure stops the
// batch; remaining events stay pending for the next tick.
func (r *Relay) Drain(ctx context.Context) error {
	events, err := r.source.ListUnpublished(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := r.publisher.Publish(ctx, ev.EventType, ev.Payload); err != nil {
			return err
		}
		if err := r.source.MarkPublished(ctx, ev.ID); err != nil {
			return err
		}
		r.logger.Info().
			Str("event_id", ev.ID).
			Str("event_type", ev.EventType).
			Msg("event published")
	}
	return nil
}
