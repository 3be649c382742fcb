package patients

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage
type Repository interface {
	Upsert(ctx context.Context, req *UpsertPatientRequest) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

// InMemoryRepository keeps patients in a map keyed by phone. It backs mock
// mode and tests; semantics match the Postgres implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byPhone map[string]*Patient
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byPhone: make(map[string]*Patient),
	}
}

// Upsert creates or overwrites the patient with the request's phone key.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.byPhone[req.Phone]
	if !ok {
		patient = &Patient{ID: uuid.New().String(), Phone: req.Phone}
		r.byPhone[req.Phone] = patient
	}
	patient.Name = req.Name
	patient.Address = req.Address
	patient.City = req.City
	patient.State = req.State
	patient.Zip = req.Zip
	patient.Latitude = req.Latitude
	patient.Longitude = req.Longitude
	patient.Therapist = req.Therapist
	patient.Notes = req.Notes

	copied := *patient
	return &copied, nil
}

// GetByPhone retrieves a patient by E.164 phone.
func (r *InMemoryRepository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	phone = strings.TrimSpace(phone)

	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *patient
	return &copied, nil
}

// GetByID retrieves a patient by its generated id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byPhone {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPatientNotFound
}

// List returns all patients in no particular order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.byPhone))
	for _, p := range r.byPhone {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}
