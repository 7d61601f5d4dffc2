package session

import "fmt"

// Reason classifies a SessionError.
type Reason string

const (
	// ReasonLoginRejected means Login answered with a status other than 200.
	ReasonLoginRejected Reason = "login_rejected"

	// ReasonNoToken means Login answered 200 without a usable returnObj.
	ReasonNoToken Reason = "no_token"

	// ReasonLogoutRejected means DeleteSessionByID answered with a status
	// other than 200.
	ReasonLogoutRejected Reason = "logout_rejected"
)

// maxMessageBytes bounds how much of an ERP response is kept in a SessionError.
const maxMessageBytes = 512

// SessionError is a recoverable failure to obtain or release a session.
// The stored session is never modified when one is returned.
type SessionError struct {
	// Reason classifies the failure.
	Reason Reason

	// StatusCode is the ERP status, 0 when not applicable.
	StatusCode int

	// Message is the (truncated) ERP response or a description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("session %s (status %d): %s", e.Reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("session %s: %s", e.Reason, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

func truncate(body []byte) string {
	if len(body) <= maxMessageBytes {
		return string(body)
	}
	return string(body[:maxMessageBytes]) + "..."
}
