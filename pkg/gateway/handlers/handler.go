package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"mercator-hq/epicorbridge/pkg/bridge"
)

// DefaultMaxBodyBytes bounds function payloads when Options leaves it unset.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// Executor runs proxied operations. *bridge.Proxy implements it.
type Executor interface {
	ExecuteQuery(ctx context.Context, q bridge.Query) bridge.Result
	InvokeFunction(ctx context.Context, f bridge.Function) bridge.Result
}

// Resolver maps public route names to ERP calls. *catalog.Registry
// implements it.
type Resolver interface {
	ResolveQuery(name string, params []bridge.Param) (bridge.Query, error)
	ResolveFunction(name string, params []bridge.Param, body json.RawMessage) (bridge.Function, error)
}

// Options configures a Handler.
type Options struct {
	// APIKeyParam is stripped from inbound query strings before forwarding.
	APIKeyParam string

	// MaxBodyBytes bounds function payloads.
	MaxBodyBytes int64

	// AllowPassthrough registers the raw BAQ and function routes.
	AllowPassthrough bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler serves the /api/v1 surface.
type Handler struct {
	exec        Executor
	resolver    Resolver
	apiKeyParam string
	maxBody     int64
	passthrough bool
	logger      *slog.Logger
}

// New creates a Handler.
func New(exec Executor, resolver Resolver, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		exec:        exec,
		resolver:    resolver,
		apiKeyParam: opts.APIKeyParam,
		maxBody:     opts.MaxBodyBytes,
		passthrough: opts.AllowPassthrough,
		logger:      opts.Logger.With("component", "handlers"),
	}
}

// Register mounts the API routes on r:
//
//	GET  /query/{name}
//	POST /function/{name}
//	GET  /baq/{baqID}                  (passthrough only)
//	POST /efx/{library}/{functionID}   (passthrough only)
func (h *Handler) Register(r chi.Router) {
	r.Get("/query/{name}", h.Query)
	r.Post("/function/{name}", h.Function)

	if h.passthrough {
		r.Get("/baq/{baqID}", h.RawQuery)
		r.Post("/efx/{library}/{functionID}", h.RawFunction)
	}
}
