package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for a single request. Every failure surfaces as exactly one
// of these (or a ServiceError for provider faults); no command is sent to a
// device once a request has failed.
var (
	// ErrInvalidRequest marks malformed requests: missing device, unknown
	// device, out-of-range control values.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound means the entity locator produced zero candidates.
	ErrNotFound = errors.New("no matching catalog entry")
	// ErrNoRecommendations means a discovery or similarity query came back empty.
	ErrNoRecommendations = errors.New("no recommendations available")
	// ErrNoSnapshot means restore was requested with an empty snapshot slot.
	ErrNoSnapshot = errors.New("no playback snapshot captured")
)

// ServiceError wraps a failure surfaced by the music-service client, keeping
// the operation that failed for logging.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("spotify %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err as a provider failure for operation op.
func NewServiceError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Err: err}
}
