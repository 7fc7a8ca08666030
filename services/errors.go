package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for remote operations. Transport and rejection failures
// are both "operation failed" to the controllers; only the surfaced
// message differs. Guard violations and missing auth never reach the
// backend at all.
var (
	// ErrOperationInFlight is returned when a second operation is issued
	// for the same target key while one is still pending.
	ErrOperationInFlight = errors.New("operation already in progress for this target")

	// ErrNotAuthenticated is returned when a mutating call is attempted
	// without a session token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// TransportError wraps a failure where no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError wraps a server-validated refusal (4xx/5xx with a body).
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rejected by store (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("rejected by store (%d)", e.StatusCode)
}

// Is lets a 401 rejection satisfy errors.Is(err, ErrNotAuthenticated),
// mirroring the original client's special-casing of expired sessions.
func (e *RejectedError) Is(target error) bool {
	return target == ErrNotAuthenticated && e.StatusCode == http.StatusUnauthorized
}

// IsTransportFailure reports whether err means the backend never answered.
func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is a server-side refusal.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
