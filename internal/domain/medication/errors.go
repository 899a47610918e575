package medication

import "errors"

var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrInvalidInput       = errors.New("invalid input")
)
