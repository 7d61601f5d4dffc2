package bridge

import (
	"encoding/json"
	"net/http"
)

// Category classifies the outcome of a proxied operation.
type Category int

const (
	// Success carries the downstream payload.
	Success Category = iota

	// ClientError carries the downstream 400 payload.
	ClientError

	// Unauthorized means no session could be obtained.
	Unauthorized

	// UpstreamError means the ERP could not be reached or answered with
	// something unusable. Message is always generic.
	UpstreamError
)

// String returns the category name used in logs, metrics and audit.
func (c Category) String() string {
	switch c {
	case Success:
		return "success"
	case ClientError:
		return "client_error"
	case Unauthorized:
		return "unauthorized"
	case UpstreamError:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of ExecuteQuery or InvokeFunction.
type Result struct {
	Category Category

	// Payload is the JSON returned to the caller for Success and ClientError.
	Payload json.RawMessage

	// Message is set for Unauthorized and UpstreamError.
	Message string

	// UpstreamStatus is the ERP status, 0 when no response was received.
	UpstreamStatus int

	// Timeout is set when an UpstreamError was caused by a deadline.
	Timeout bool
}

// HTTPStatus returns the status the gateway answers with.
func (r Result) HTTPStatus() int {
	switch r.Category {
	case Success:
		return http.StatusOK
	case ClientError:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		if r.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
}
