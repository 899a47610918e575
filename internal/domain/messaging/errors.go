package messaging

import "errors"

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidInput      = errors.New("invalid input")
)
