package epicor

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportError represents a downstream call that produced no HTTP
// response: connection failure, TLS failure, timeout or cancellation.
// Its message may contain internal addresses and must not be shown to
// gateway callers.
type TransportError struct {
	// Op is the downstream operation (validate, login, logout, query, function).
	Op string

	// Method and URL identify the failed call.
	Method string
	URL    string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("epicor %s %s %s: %v", e.Op, e.Method, e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the call failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Cause, &ne) && ne.Timeout()
}

// ParseError represents a response body that could not be decoded.
type ParseError struct {
	// Op is the downstream operation whose response failed to parse.
	Op string

	// Cause is the underlying decode error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("epicor %s response parse error: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is a TransportError caused by a deadline.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout()
}
