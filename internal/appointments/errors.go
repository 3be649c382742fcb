package appointments

import "errors"

var (
	// ErrMissingPatientID is returned when the patient reference is empty
	ErrMissingPatientID = errors.New("patient id is required")

	// ErrMissingStart is returned when the start timestamp is zero
	ErrMissingStart = errors.New("start timestamp is required")

	// ErrInvalidStatus is returned when the status is not a known value
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidSource is returned when the source is not a known value
	ErrInvalidSource = errors.New("invalid source")

	// ErrAppointmentNotFound is returned when no appointment matches the lookup
	ErrAppointmentNotFound = errors.New("appointment not found")
)
