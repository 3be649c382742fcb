package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mimakeko/homehealth-assistant/internal/patients"
)

// Repository is the appointment directory. It owns appointment rows;
// callers never mutate them outside Upsert.
type Repository interface {
	// Upsert writes the appointment for the patient's calendar day,
	// overwriting any existing row in that day's window.
	Upsert(ctx context.Context, req *UpsertAppointmentRequest) (*Appointment, error)
	// ListForDay returns the appointments falling on day's calendar day,
	// joined with patient fields, ascending by start timestamp. An empty
	// therapist matches all therapists.
	ListForDay(ctx context.Context, day time.Time, therapist string) ([]*DayAppointment, error)
}

// InMemoryRepository keeps appointments in process memory. It backs mock
// mode and tests; semantics match the Postgres implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	loc      *time.Location
	patients patients.Repository
	byID     map[string]*Appointment
}

// NewInMemoryRepository creates an in-memory directory joining against the
// given patient repository.
func NewInMemoryRepository(loc *time.Location, patientRepo patients.Repository) *InMemoryRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &InMemoryRepository{
		loc:      loc,
		patients: patientRepo,
		byID:     make(map[string]*Appointment),
	}
}

// Upsert applies last-write-wins within the calendar day of req.Start.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dayStart, dayEnd := dayWindow(req.Start, r.loc)
	var appt *Appointment
	for _, a := range r.byID {
		if a.PatientID != req.PatientID {
			continue
		}
		if a.Start.Before(dayStart) || !a.Start.Before(dayEnd) {
			continue
		}
		appt = a
		break
	}
	if appt == nil {
		appt = &Appointment{ID: uuid.New().String(), PatientID: req.PatientID}
		r.byID[appt.ID] = appt
	}
	appt.Therapist = req.Therapist
	appt.Start = req.Start
	appt.DurationMinutes = req.DurationMinutes
	appt.Status = req.Status
	appt.Source = req.Source
	appt.Note = req.Note

	copied := *appt
	return &copied, nil
}

// ListForDay filters to the day window and joins patient fields. Rows whose
// patient is missing are skipped, matching the SQL inner join.
func (r *InMemoryRepository) ListForDay(ctx context.Context, day time.Time, therapist string) ([]*DayAppointment, error) {
	dayStart, dayEnd := dayWindow(day, r.loc)

	r.mu.RLock()
	var selected []*Appointment
	for _, a := range r.byID {
		if a.Start.Before(dayStart) || !a.Start.Before(dayEnd) {
			continue
		}
		if therapist != "" && a.Therapist != therapist {
			continue
		}
		copied := *a
		selected = append(selected, &copied)
	}
	r.mu.RUnlock()

	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Start.Before(selected[j].Start) })

	out := make([]*DayAppointment, 0, len(selected))
	for _, a := range selected {
		patient, err := r.patients.GetByID(ctx, a.PatientID)
		if err != nil {
			continue
		}
		out = append(out, &DayAppointment{
			Appointment:  *a,
			PatientName:  patient.Name,
			PatientPhone: patient.Phone,
			Address:      patient.Address,
			City:         patient.City,
			State:        patient.State,
			Zip:          patient.Zip,
			Latitude:     patient.Latitude,
			Longitude:    patient.Longitude,
		})
	}
	return out, nil
}
