// Package middleware provides the HTTP middleware of the gateway.
//
// The server chains them as
//
//	Recovery -> Logging -> RequestID -> Tracing -> Metrics -> Timeout -> routes
//
// and wraps the /api/v1 group in APIKeyMiddleware. Logging reads the
// request ID back from the X-Request-ID response header, so it can sit
// outside RequestID and still log the final ID.
//
// Timeout only sets a context deadline. It never writes a response itself;
// the downstream call fails with context.DeadlineExceeded and the handler
// answers 504, so exactly one goroutine ever touches the ResponseWriter.
package middleware
