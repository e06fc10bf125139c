package datasource

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches any *DataUnavailableError via errors.Is.
var ErrUnavailable = errors.New("data unavailable")

// RemoteFetchError is returned when a remote endpoint answers with a
// non-success status.
type RemoteFetchError struct {
	Endpoint   string
	Status     int
	StatusText string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch %s: %d %s", e.Endpoint, e.Status, e.StatusText)
}

// DataUnavailableError is returned when no payload exists for an endpoint,
// or the payload could not be read or decoded.
type DataUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data unavailable for endpoint %q: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("data unavailable for endpoint %q", e.Endpoint)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrUnavailable }
