package apiclient

import (
	"errors"
	"fmt"
)

// Error categories the UI reacts to. Validation failures are not
// sentinels; they carry the server's field-specific message verbatim.
var (
	// ErrOffline is returned before any request is attempted when the
	// client knows the network is unavailable.
	ErrOffline = errors.New("no network connection")
	// ErrUnauthorized covers 401: no session, expired session, or bad
	// credentials.
	ErrUnauthorized = errors.New("authentication required")
	// ErrNotFound covers 404: the item is gone or belongs to someone else.
	ErrNotFound = errors.New("not found")
	// ErrServer covers 5xx: the backend failed, detail stays server-side.
	ErrServer = errors.New("server error")
)

// APIError is a non-success response with a message parsed from the
// body, or a generic "HTTP error <code>" when the body carried none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error %d", e.Status)
}

// Unwrap maps the status onto the sentinel categories so callers can
// use errors.Is without caring about the exact code.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == 401:
		return ErrUnauthorized
	case e.Status == 404:
		return ErrNotFound
	case e.Status >= 500:
		return ErrServer
	}
	return nil
}
