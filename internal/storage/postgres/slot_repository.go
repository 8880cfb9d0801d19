package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SlotRepository) ListSlots(ctx context.Context, doctorID string, from, to time.Time) ([]domain.Slot, error) {
	const query = `
SELECT id, doctor_id, start_at, end_at, status
FROM slots
WHERE doctor_id = $1 AND start_at >= $2 AND start_at <= $3
ORDER BY start_at`

	rows, err := r.query(ctx, query, doctorID, from, to)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.StartAt, &s.EndAt, &s.Status); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (r *SlotRepository) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, status FROM slots WHERE id = $1`

	var s domain.Slot
	err := r.queryRow(ctx, query, id).Scan(&s.ID, &s.DoctorID, &s.StartAt, &s.EndAt, &s.Status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Slot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

// GetSlotForUpdate locks the slot row for the rest of the surrounding
// transaction. All status transitions start here.
func (r *SlotRepository) GetSlotForUpdate(ctx context.Context, id string) (domain.Slot, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, status FROM slots WHERE id = $1 FOR UPDATE`

	var s domain.Slot
	err := r.queryRow(ctx, query, id).Scan(&s.ID, &s.DoctorID, &s.StartAt, &s.EndAt, &s.Status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Slot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("get slot for update: %w", err)
	}
	return s, nil
}

func (r *SlotRepository) SetSlotStatus(ctx context.Context, id string, status domain.SlotStatus) error {
	const stmt = `UPDATE slots SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set slot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

func (r *SlotRepository) CreateSlots(ctx context.Context, slots []domain.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	const stmt = `
INSERT INTO slots (id, doctor_id, start_at, end_at, status)
VALUES ($1, $2, $3, $4, $5)`

	for _, s := range slots {
		if _, err := r.exec(ctx, stmt, s.ID, s.DoctorID, s.StartAt, s.EndAt, s.Status); err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create slot: %w", err)
		}
	}
	return nil
}

func (r *SlotRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SlotRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *SlotRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
