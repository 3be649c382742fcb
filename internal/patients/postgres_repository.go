package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const patientColumns = `id, name, phone, address, city, state, zip, latitude, longitude, therapist, notes`

// Upsert inserts the patient or overwrites the existing row keyed by phone.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO patients (id, name, phone, address, city, state, zip, latitude, longitude, therapist, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (phone) DO UPDATE
		SET name = EXCLUDED.name,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			therapist = EXCLUDED.therapist,
			notes = EXCLUDED.notes,
			updated_at = now()
		RETURNING id
	`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query,
		uuid.New(),
		req.Name,
		req.Phone,
		req.Address,
		req.City,
		req.State,
		req.Zip,
		req.Latitude,
		req.Longitude,
		req.Therapist,
		req.Notes,
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("patients: upsert failed: %w", err)
	}

	return &Patient{
		ID:        id.String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Therapist: req.Therapist,
		Notes:     req.Notes,
	}, nil
}

// GetByPhone fetches the patient holding the E.164 phone key.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	phone = strings.TrimSpace(phone)
	query := `SELECT ` + patientColumns + ` FROM patients WHERE phone = $1`

	row := r.pool.QueryRow(ctx, query, phone)
	patient, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select by phone failed: %w", err)
	}
	return patient, nil
}

// GetByID fetches a single patient row by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	patient, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select by id failed: %w", err)
	}
	return patient, nil
}

// List returns every patient ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, patient)
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&p.Address,
		&p.City,
		&p.State,
		&p.Zip,
		&p.Latitude,
		&p.Longitude,
		&p.Therapist,
		&p.Notes,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
