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

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *HoldRepository) GetSlotForUpdate(ctx context.Context, slotID string) (domain.Slot, error) {
	return NewSlotRepository(r.pool).GetSlotForUpdate(ctx, slotID)
}

func (r *HoldRepository) SetSlotStatus(ctx context.Context, slotID string, status domain.SlotStatus) error {
	return NewSlotRepository(r.pool).SetSlotStatus(ctx, slotID, status)
}

func (r *HoldRepository) GetHold(ctx context.Context, id string) (*domain.Hold, error) {
	const query = `SELECT id, slot_id, user_id, expires_at, created_at FROM slot_holds WHERE id = $1`
	return r.scanHold(r.queryRow(ctx, query, id))
}

func (r *HoldRepository) GetHoldBySlot(ctx context.Context, slotID string) (*domain.Hold, error) {
	const query = `SELECT id, slot_id, user_id, expires_at, created_at FROM slot_holds WHERE slot_id = $1`
	return r.scanHold(r.queryRow(ctx, query, slotID))
}

func (r *HoldRepository) ListHoldsByUser(ctx context.Context, userID string) ([]domain.Hold, error) {
	const query = `
SELECT id, slot_id, user_id, expires_at, created_at
FROM slot_holds
WHERE user_id = $1
ORDER BY created_at`

	return r.listHolds(ctx, query, userID)
}

func (r *HoldRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	const query = `
SELECT id, slot_id, user_id, expires_at, created_at
FROM slot_holds
WHERE expires_at <= $1
ORDER BY expires_at
LIMIT $2`

	return r.listHolds(ctx, query, now, limit)
}

func (r *HoldRepository) ListExpiredHoldsByDoctor(ctx context.Context, doctorID string, now time.Time) ([]domain.Hold, error) {
	const query = `
SELECT h.id, h.slot_id, h.user_id, h.expires_at, h.created_at
FROM slot_holds h
JOIN slots s ON s.id = h.slot_id
WHERE s.doctor_id = $1 AND h.expires_at <= $2`

	return r.listHolds(ctx, query, doctorID, now)
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO slot_holds (id, slot_id, user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, hold.ID, hold.SlotID, hold.UserID, hold.ExpiresAt, hold.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyHeldByOther
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// DeleteHold removes a hold. A missing row is not an error: release paths
// are idempotent.
func (r *HoldRepository) DeleteHold(ctx context.Context, id string) error {
	const stmt = `DELETE FROM slot_holds WHERE id = $1`

	_, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return nil
		}
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) scanHold(row pgx.Row) (*domain.Hold, error) {
	var h domain.Hold
	err := row.Scan(&h.ID, &h.SlotID, &h.UserID, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get hold: %w", err)
	}
	return &h, nil
}

func (r *HoldRepository) listHolds(ctx context.Context, sql string, args ...any) ([]domain.Hold, error) {
	rows, err := r.query(ctx, sql, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.SlotID, &h.UserID, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	return holds, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
