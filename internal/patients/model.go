package patients

import (
	"fmt"
	"strings"
)

// Patient is a person receiving home visits. Phone is the natural key used
// to correlate inbound messages to a patient and is stored E.164-normalized.
type Patient struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
	Therapist string   `json:"therapist"`
	Notes     string   `json:"notes,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (p *Patient) HasCoordinates() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// FullAddress renders the mailing address on one line for geocoding.
func (p *Patient) FullAddress() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(p.Address); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(p.City); s != "" {
		parts = append(parts, s)
	}
	tail := strings.TrimSpace(strings.TrimSpace(p.State) + " " + strings.TrimSpace(p.Zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// UpsertPatientRequest carries the fields written on patient upsert.
type UpsertPatientRequest struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
	Therapist string   `json:"therapist"`
	Notes     string   `json:"notes,omitempty"`
}

// Validate checks the request before any storage mutation.
func (r *UpsertPatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	if !strings.HasPrefix(r.Phone, "+") {
		return fmt.Errorf("%w: %q is not E.164", ErrInvalidPhone, r.Phone)
	}
	return nil
}
