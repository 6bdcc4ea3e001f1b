package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidBody     = errors.New("invalid body")
	ErrBodyTooLarge    = errors.New("body too large")
	ErrUnavailable     = errors.New("service unavailable")
	ErrUnexpectedReply = errors.New("unexpected response")
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
	// Body is the raw response payload.
	Body []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("json-server: HTTP %d", e.Status)
	}
	return fmt.Sprintf("json-server: HTTP %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusBadRequest:
		return target == ErrInvalidBody
	case http.StatusRequestEntityTooLarge:
		return target == ErrBodyTooLarge
	case http.StatusServiceUnavailable:
		return target == ErrUnavailable
	}
	return false
}
