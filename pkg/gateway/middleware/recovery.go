package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/epicorbridge/pkg/gateway/types"
)

// Recovery converts a panic in a handler into a 500 error envelope. The
// stack is logged, never returned.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				// Let the server abort the connection as intended.
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", w.Header().Get(RequestIDHeader),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				types.WriteError(w, http.StatusInternalServerError,
					types.NewServerError("An internal error occurred. Please try again later."))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
