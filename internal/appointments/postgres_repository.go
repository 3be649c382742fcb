package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository uses.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool PgxPool
	loc  *time.Location
}

// NewPostgresRepository initializes a repo backed by pgxpool. The location
// fixes which wall clock defines a calendar day.
func NewPostgresRepository(pool PgxPool, loc *time.Location) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresRepository{pool: pool, loc: loc}
}

// Upsert writes the appointment for the patient's calendar day inside a
// transaction. The row is locked during the read-modify-write so concurrent
// inbound messages for the same patient serialize instead of duplicating.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	dayStart, dayEnd := dayWindow(req.Start, r.loc)

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id FROM appointments
		WHERE patient_id = $1 AND start_timestamp >= $2 AND start_timestamp < $3
		FOR UPDATE
	`, req.PatientID, dayStart, dayEnd).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.Exec(ctx, `
			UPDATE appointments
			SET therapist = $2,
				start_timestamp = $3,
				duration_minutes = $4,
				status = $5,
				source = $6,
				note = $7,
				updated_at = now()
			WHERE id = $1
		`, id, req.Therapist, req.Start, req.DurationMinutes, string(req.Status), string(req.Source), req.Note)
		if err != nil {
			return nil, fmt.Errorf("appointments: update failed: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New().String()
		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, therapist, start_timestamp, duration_minutes, status, source, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, req.PatientID, req.Therapist, req.Start, req.DurationMinutes, string(req.Status), string(req.Source), req.Note)
		if err != nil {
			return nil, fmt.Errorf("appointments: insert failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("appointments: day lookup failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit failed: %w", err)
	}

	return &Appointment{
		ID:              id,
		PatientID:       req.PatientID,
		Therapist:       req.Therapist,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Source:          req.Source,
		Note:            req.Note,
	}, nil
}

// ListForDay reads the day's appointments joined with their patients.
func (r *PostgresRepository) ListForDay(ctx context.Context, day time.Time, therapist string) ([]*DayAppointment, error) {
	dayStart, dayEnd := dayWindow(day, r.loc)

	query := `
		SELECT a.id, a.patient_id, a.therapist, a.start_timestamp, a.duration_minutes, a.status, a.source, a.note,
			p.name, p.phone, p.address, p.city, p.state, p.zip, p.latitude, p.longitude
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.start_timestamp >= $1 AND a.start_timestamp < $2`
	args := []any{dayStart, dayEnd}
	if therapist != "" {
		query += ` AND a.therapist = $3`
		args = append(args, therapist)
	}
	query += ` ORDER BY a.start_timestamp`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for day failed: %w", err)
	}
	defer rows.Close()

	var out []*DayAppointment
	for rows.Next() {
		var d DayAppointment
		if err := rows.Scan(
			&d.ID,
			&d.PatientID,
			&d.Therapist,
			&d.Start,
			&d.DurationMinutes,
			&d.Status,
			&d.Source,
			&d.Note,
			&d.PatientName,
			&d.PatientPhone,
			&d.Address,
			&d.City,
			&d.State,
			&d.Zip,
			&d.Latitude,
			&d.Longitude,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		d.Start = d.Start.In(r.loc)
		out = append(out, &d)
	}
	return out, rows.Err()
}
