package mood

import "errors"

var (
	ErrEntryNotFound = errors.New("mood entry not found")
	ErrInvalidInput  = errors.New("invalid input")
)
