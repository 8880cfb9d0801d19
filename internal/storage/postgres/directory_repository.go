package postgres

import (
	"context"
	"fmt"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryRepository backs the doctor/service read model.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	const query = `SELECT id, name, specialty FROM doctors ORDER BY name`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []domain.Doctor
	for rows.Next() {
		var d domain.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (r *DirectoryRepository) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	const query = `SELECT id, name, specialty FROM doctors WHERE id = $1`

	var d domain.Doctor
	err := r.queryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Specialty)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Doctor{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Doctor{}, domain.ErrDoctorNotFound
		}
		return domain.Doctor{}, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *DirectoryRepository) CreateDoctor(ctx context.Context, d domain.Doctor) error {
	const stmt = `INSERT INTO doctors (id, name, specialty) VALUES ($1, $2, $3)`

	if _, err := r.exec(ctx, stmt, d.ID, d.Name, d.Specialty); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) ListServices(ctx context.Context) ([]domain.Service, error) {
	const query = `SELECT id, name, duration_min FROM services ORDER BY name`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMin); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (r *DirectoryRepository) GetService(ctx context.Context, id string) (domain.Service, error) {
	const query = `SELECT id, name, duration_min FROM services WHERE id = $1`

	var s domain.Service
	err := r.queryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.DurationMin)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Service{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Service{}, domain.ErrServiceNotFound
		}
		return domain.Service{}, fmt.Errorf("get service: %w", err)
	}
	return s, nil
}

func (r *DirectoryRepository) CreateService(ctx context.Context, s domain.Service) error {
	const stmt = `INSERT INTO services (id, name, duration_min) VALUES ($1, $2, $3)`

	if _, err := r.exec(ctx, stmt, s.ID, s.Name, s.DurationMin); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *DirectoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *DirectoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
