// README: Typed failures returned by the ride authority client.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the authority. Message is the
// authority's own text when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// ParseError is returned when a response body does not match the expected schema.
type ParseError struct {
	Op    string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("backend: parse %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend: parse %s: field %s: %v", e.Op, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the authority.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the authority's message carried by err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
