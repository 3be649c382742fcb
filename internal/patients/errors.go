package patients

import "errors"

var (
	// ErrMissingName is returned when the name is empty
	ErrMissingName = errors.New("name is required")

	// ErrMissingPhone is returned when the phone is empty
	ErrMissingPhone = errors.New("phone is required")

	// ErrInvalidPhone is returned when the phone is not E.164
	ErrInvalidPhone = errors.New("invalid phone")

	// ErrPatientNotFound is returned when no patient matches the lookup
	ErrPatientNotFound = errors.New("patient not found")
)
