package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) ListClinics(ctx context.Context) ([]Clinic, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM clinics
		WHERE active = true
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Clinic
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (d *PgDirectory) ListServicesByClinic(ctx context.Context, clinicID uuid.UUID) ([]StaticService, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT service_id, clinic_id, category, service_name, doctor_name
		FROM static_services
		WHERE clinic_id = $1
		ORDER BY service_id
	`, clinicID)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func (d *PgDirectory) ListAllServices(ctx context.Context) ([]StaticService, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT service_id, clinic_id, category, service_name, doctor_name
		FROM static_services
		ORDER BY service_id
	`)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]StaticService, error) {
	defer rows.Close()

	var result []StaticService
	for rows.Next() {
		var s StaticService
		if err := rows.Scan(&s.ServiceID, &s.ClinicID, &s.Category, &s.ServiceName, &s.DoctorName); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (d *PgDirectory) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, clinic_id, name, specialty, services, active, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (d *PgDirectory) ListActiveDoctorsByClinic(ctx context.Context, clinicID uuid.UUID) ([]Doctor, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, clinic_id, name, specialty, services, active, created_at, updated_at
		FROM doctors
		WHERE clinic_id = $1
		  AND active = true
		ORDER BY name
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	return result, rows.Err()
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var doc Doctor
	err := row.Scan(
		&doc.ID,
		&doc.ClinicID,
		&doc.Name,
		&doc.Specialty,
		&doc.Services,
		&doc.Active,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &doc, nil
}
