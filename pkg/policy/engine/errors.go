package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates invalid engine configuration.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// HashError indicates the scenario could not be canonically encoded.
type HashError struct {
	ScenarioID string
	Cause      error
}

// Error returns the error message.
func (e *HashError) Error() string {
	return fmt.Sprintf("scenario %s: deterministic hash failed: %v", e.ScenarioID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *HashError) Unwrap() error {
	return e.Cause
}
