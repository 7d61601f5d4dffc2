package handlers

import (
	"errors"
	"net/http"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/catalog"
	"mercator-hq/epicorbridge/pkg/gateway/types"
)

// writeResult renders a proxy result. Payloads are written verbatim;
// errors raised by the gateway itself use the error envelope.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, res bridge.Result) {
	status := res.HTTPStatus()

	switch res.Category {
	case bridge.Success, bridge.ClientError:
		types.WriteJSON(w, status, res.Payload)

	case bridge.Unauthorized:
		types.WriteError(w, status, types.NewAuthenticationError(res.Message, types.CodeSessionFailed))

	default:
		if res.Timeout {
			types.WriteError(w, status, types.NewGatewayTimeoutError(res.Message))
			return
		}
		types.WriteError(w, status, types.NewBadGatewayError(res.Message))
	}
}

// writeResolveError maps catalog errors: unknown names are 404, bad input
// is 400. Neither reaches the ERP.
func (h *Handler) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *catalog.InputError
	switch {
	case errors.As(err, &inputErr):
		code := types.CodeInvalidValue
		if inputErr.Message == catalog.MessageInputEmpty {
			code = types.CodeMissingField
		}
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError(inputErr.Message, inputErr.Param, code))

	case errors.Is(err, catalog.ErrNotFound):
		types.WriteError(w, http.StatusNotFound, types.NewNotFoundError(err.Error()))

	default:
		h.logger.ErrorContext(r.Context(), "failed to resolve route",
			"path", r.URL.Path,
			"error", err,
		)
		types.WriteError(w, http.StatusInternalServerError, types.NewServerError("failed to resolve route"))
	}
}
