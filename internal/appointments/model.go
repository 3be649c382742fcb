package appointments

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDurationMinutes is assumed when a visit carries no explicit duration.
const DefaultDurationMinutes = 60

// Status tracks the lifecycle of a visit. Rows are never deleted; a
// cancellation is a status transition.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusReschedule Status = "reschedule"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReschedule, StatusCanceled:
		return true
	}
	return false
}

// Source records which path wrote the appointment.
type Source string

const (
	SourceInbound Source = "inbound"
	SourceManual  Source = "manual"
	SourceSystem  Source = "system"
)

// Valid reports whether the source is one of the known origins.
func (s Source) Valid() bool {
	switch s {
	case SourceInbound, SourceManual, SourceSystem:
		return true
	}
	return false
}

// Appointment is a scheduled home visit. At most one row exists per
// (patient, calendar day); later writes for the same day overwrite it.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	Therapist       string    `json:"therapist"`
	Start           time.Time `json:"start_iso"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Source          Source    `json:"source"`
	Note            string    `json:"note,omitempty"`
}

// DayAppointment is an appointment joined with the patient fields the
// schedule view and the route optimizer need.
type DayAppointment struct {
	Appointment
	PatientName  string   `json:"patient_name"`
	PatientPhone string   `json:"patient_phone"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Latitude     *float64 `json:"lat,omitempty"`
	Longitude    *float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether the joined patient row carries both
// latitude and longitude.
func (d *DayAppointment) HasCoordinates() bool {
	return d != nil && d.Latitude != nil && d.Longitude != nil
}

// FullAddress renders the stop's street address on one line for geocoding.
func (d *DayAppointment) FullAddress() string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(d.Address); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(d.City); s != "" {
		parts = append(parts, s)
	}
	tail := strings.TrimSpace(strings.TrimSpace(d.State) + " " + strings.TrimSpace(d.Zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// UpsertAppointmentRequest carries the fields written on upsert.
type UpsertAppointmentRequest struct {
	PatientID       string    `json:"patient_id"`
	Therapist       string    `json:"therapist"`
	Start           time.Time `json:"start_iso"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Source          Source    `json:"source"`
	Note            string    `json:"note,omitempty"`
}

// Validate checks required fields and fills defaults in place.
func (r *UpsertAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatientID
	}
	if r.Start.IsZero() {
		return ErrMissingStart
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = DefaultDurationMinutes
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if r.Source == "" {
		r.Source = SourceManual
	}
	if !r.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, r.Source)
	}
	return nil
}

// dayWindow returns [local midnight of t's day, next local midnight).
// Day-scoped upserts and list queries share this window.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
