package strava

import (
	"fmt"
	"net/http"
)

// TransportError is returned when a request could not be sent or the server
// answered with a non-2xx status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: strava error: %v", e.Op, e.URL, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the server rejected the credentials.
func (e *TransportError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// DeserializationError is returned when a response body does not match the
// expected JSON shape.
type DeserializationError struct {
	Op  string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("%s: could not decode response: %v", e.Op, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
