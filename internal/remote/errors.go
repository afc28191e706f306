package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Sentinel wrappers for the outcomes callers branch on.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

func statusError(code int, body string) error {
	se := &StatusError{Code: code, Body: body}
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, se)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, se)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, se)
	default:
		return se
	}
}

// IsTransient classifies failures the outbox should retry on a later
// transition: transport-level errors and server-side 5xx/429. Auth and
// validation failures are terminal and must not clog the queue.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	// No status at all: connection refused, timeout, DNS.
	return true
}
