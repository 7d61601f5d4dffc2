package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no catalog entry has the requested name.
var ErrNotFound = errors.New("catalog entry not found")

// InputError reports an inbound request the catalog cannot route. It is
// answered with 400 without contacting the ERP.
type InputError struct {
	// Param is the offending query parameter.
	Param string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Param == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Param)
}

// LoadError represents a failure to read or validate a catalog file.
type LoadError struct {
	// FilePath is the path to the catalog file.
	FilePath string

	// Message describes the error.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load catalog %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load catalog %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}
