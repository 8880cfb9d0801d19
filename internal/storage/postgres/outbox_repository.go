package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepository persists booking events in the same transaction as the
// mutation that produced them; a relay publishes them later.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// StoredEvent is an outbox row awaiting publication.
type StoredEvent struct {
	ID        string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

func (r *OutboxRepository) Insert(ctx context.Context, event domain.BookingEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	const stmt = `
INSERT INTO outbox_events (id, event_type, payload, created_at, published)
VALUES ($1, $2, $3, NOW(), FALSE)`

	if _, err := r.exec(ctx, stmt, uuid.NewString(), event.EventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]StoredEvent, error) {
	const query = `
SELECT id, event_type, payload, created_at
FROM outbox_events
WHERE NOT published
ORDER BY created_at
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	const stmt = `UPDATE outbox_events SET published = TRUE WHERE id = $1`

	if _, err := r.exec(ctx, stmt, id); err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}

func (r *OutboxRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OutboxRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
