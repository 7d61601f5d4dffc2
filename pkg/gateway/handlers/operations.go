package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/gateway/types"
)

// Query handles GET /query/{name}. The inbound query string, minus the
// api key, is forwarded to the BAQ.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	q, err := h.resolver.ResolveQuery(chi.URLParam(r, "name"), params)
	if err != nil {
		h.writeResolveError(w, r, err)
		return
	}

	h.writeResult(w, r, h.exec.ExecuteQuery(r.Context(), q))
}

// Function handles POST /function/{name}. The body must be JSON and is
// forwarded verbatim.
func (h *Handler) Function(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	body, ok := h.body(w, r)
	if !ok {
		return
	}

	f, err := h.resolver.ResolveFunction(chi.URLParam(r, "name"), params, body)
	if err != nil {
		h.writeResolveError(w, r, err)
		return
	}

	h.writeResult(w, r, h.exec.InvokeFunction(r.Context(), f))
}

// RawQuery handles GET /baq/{baqID} for BAQs outside the catalog.
func (h *Handler) RawQuery(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	q := bridge.Query{ID: chi.URLParam(r, "baqID"), Verb: http.MethodGet, Params: params}
	h.writeResult(w, r, h.exec.ExecuteQuery(r.Context(), q))
}

// RawFunction handles POST /efx/{library}/{functionID} for functions
// outside the catalog.
func (h *Handler) RawFunction(w http.ResponseWriter, r *http.Request) {
	body, ok := h.body(w, r)
	if !ok {
		return
	}

	f := bridge.Function{
		Library:    chi.URLParam(r, "library"),
		FunctionID: chi.URLParam(r, "functionID"),
		Body:       body,
	}
	h.writeResult(w, r, h.exec.InvokeFunction(r.Context(), f))
}

// NotFound answers unknown routes with the error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	types.WriteError(w, http.StatusNotFound, types.NewNotFoundError("route not found"))
}

// MethodNotAllowed answers known routes called with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	types.WriteError(w, http.StatusMethodNotAllowed, types.NewErrorResponse(
		"method not allowed", types.ErrorTypeInvalidRequest, "", types.CodeMethodNotAllowed))
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) ([]bridge.Param, bool) {
	params, err := bridge.ParseParams(r.URL.RawQuery, h.apiKeyParam)
	if err != nil {
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("malformed query string", "", types.CodeInvalidValue))
		return nil, false
	}
	return params, true
}

func (h *Handler) body(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			types.WriteError(w, http.StatusRequestEntityTooLarge,
				types.NewInvalidRequestError("request body too large", "", types.CodeRequestTooLarge))
			return nil, false
		}
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("failed to read request body", "", types.CodeInvalidValue))
		return nil, false
	}

	if strings.TrimSpace(string(data)) == "" {
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("request body is empty", "", types.CodeMissingField))
		return nil, false
	}
	if !json.Valid(data) {
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("request body is not valid JSON", "", types.CodeInvalidJSON))
		return nil, false
	}
	return json.RawMessage(data), true
}
