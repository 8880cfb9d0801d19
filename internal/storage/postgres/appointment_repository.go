package postgres

import (
	"context"
	"fmt"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AppointmentRepository) GetSlotForUpdate(ctx context.Context, slotID string) (domain.Slot, error) {
	return NewSlotRepository(r.pool).GetSlotForUpdate(ctx, slotID)
}

func (r *AppointmentRepository) SetSlotStatus(ctx context.Context, slotID string, status domain.SlotStatus) error {
	return NewSlotRepository(r.pool).SetSlotStatus(ctx, slotID, status)
}

func (r *AppointmentRepository) GetHoldBySlot(ctx context.Context, slotID string) (*domain.Hold, error) {
	return NewHoldRepository(r.pool).GetHoldBySlot(ctx, slotID)
}

func (r *AppointmentRepository) DeleteHold(ctx context.Context, holdID string) error {
	return NewHoldRepository(r.pool).DeleteHold(ctx, holdID)
}

func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appt domain.Appointment) error {
	const stmt = `
INSERT INTO appointments (id, user_id, doctor_id, slot_id, service_id, appointment_type, status, reason, contact_email, contact_phone, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		appt.ID,
		appt.UserID,
		appt.DoctorID,
		appt.SlotID,
		appt.ServiceID,
		appt.Type,
		appt.Status,
		appt.Reason,
		appt.ContactEmail,
		appt.ContactPhone,
		appt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A scheduled appointment already claims this slot.
			return domain.ErrSlotUnavailable
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appt domain.Appointment) error {
	const stmt = `
UPDATE appointments
SET slot_id = $2, service_id = $3, appointment_type = $4, status = $5, reason = $6, contact_email = $7, contact_phone = $8
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		appt.ID,
		appt.SlotID,
		appt.ServiceID,
		appt.Type,
		appt.Status,
		appt.Reason,
		appt.ContactEmail,
		appt.ContactPhone,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotUnavailable
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	const query = `
SELECT id, user_id, doctor_id, slot_id, service_id, appointment_type, status, reason, contact_email, contact_phone, created_at
FROM appointments
WHERE id = $1`

	var a domain.Appointment
	err := r.queryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.SlotID, &a.ServiceID,
		&a.Type, &a.Status, &a.Reason, &a.ContactEmail, &a.ContactPhone, &a.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Appointment{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Appointment{}, domain.ErrAppointmentNotFound
		}
		return domain.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *AppointmentRepository) ListAppointmentsByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	const query = `
SELECT id, user_id, doctor_id, slot_id, service_id, appointment_type, status, reason, contact_email, contact_phone, created_at
FROM appointments
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.DoctorID, &a.SlotID, &a.ServiceID,
			&a.Type, &a.Status, &a.Reason, &a.ContactEmail, &a.ContactPhone, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (r *AppointmentRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT id, email, name FROM users WHERE id = $1`

	var u domain.User
	err := r.queryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *AppointmentRepository) CountUsersByEmailExcluding(ctx context.Context, email, excludeUserID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2`

	var count int
	if err := r.queryRow(ctx, query, email, excludeUserID).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count users by email: %w", err)
	}
	return count, nil
}

func (r *AppointmentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AppointmentRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *AppointmentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
