package domain

import "errors"

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidBody signals a request body that cannot be parsed.
	ErrInvalidBody = errors.New("invalid body")
	// ErrBodyTooLarge signals a request body over the size limit.
	ErrBodyTooLarge = errors.New("body too large")
)
