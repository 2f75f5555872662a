package plate

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrConfiguration indicates a cohort size or grid shape that cannot be run.
	ErrConfiguration = errors.New("plate: invalid configuration")

	// ErrCommunication indicates a failed transfer between ranks.
	ErrCommunication = errors.New("plate: communication failure")
)

// ConfigurationError describes why a configuration was rejected.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("plate: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CommunicationError wraps a transfer failure with the rank, peer and
// operation it happened in. Iteration is -1 outside the time loop.
type CommunicationError struct {
	Rank      int
	Peer      int
	Op        string
	Iteration int
	Err       error
}

func (e *CommunicationError) Error() string {
	if e.Iteration >= 0 {
		return fmt.Sprintf("plate: rank %d: %s with %d (iter %d): %v", e.Rank, e.Op, e.Peer, e.Iteration, e.Err)
	}
	return fmt.Sprintf("plate: rank %d: %s with %d: %v", e.Rank, e.Op, e.Peer, e.Err)
}

func (e *CommunicationError) Unwrap() []error { return []error{ErrCommunication, e.Err} }
