package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/config"
)

// MessageInputEmpty is returned when a required parameter is missing.
const MessageInputEmpty = "Input is empty"

// snapshot is an immutable view of one catalog revision.
type snapshot struct {
	queries   map[string]config.QueryRoute
	functions map[string]config.FunctionRoute
	loadedAt  time.Time
}

// Registry resolves public route names to ERP operations. Replace swaps
// the whole catalog at once so lookups never see a partial reload.
type Registry struct {
	mu      sync.RWMutex
	current *snapshot
}

// NewRegistry creates a registry serving cat. The catalog is expected to
// be defaulted and validated.
func NewRegistry(cat *config.CatalogConfig) *Registry {
	r := &Registry{}
	r.Replace(cat)
	return r
}

// Replace installs a new catalog revision.
func (r *Registry) Replace(cat *config.CatalogConfig) {
	s := &snapshot{
		queries:   make(map[string]config.QueryRoute),
		functions: make(map[string]config.FunctionRoute),
		loadedAt:  time.Now(),
	}
	if cat != nil {
		for _, q := range cat.Queries {
			s.queries[q.Name] = q
		}
		for _, f := range cat.Functions {
			s.functions[f.Name] = f
		}
	}

	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

func (r *Registry) snapshot() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Query returns the query route registered under name.
func (r *Registry) Query(name string) (config.QueryRoute, bool) {
	q, ok := r.snapshot().queries[name]
	return q, ok
}

// Function returns the function route registered under name.
func (r *Registry) Function(name string) (config.FunctionRoute, bool) {
	f, ok := r.snapshot().functions[name]
	return f, ok
}

// Count returns the number of registered queries and functions.
func (r *Registry) Count() (queries, functions int) {
	s := r.snapshot()
	return len(s.queries), len(s.functions)
}

// LoadedAt returns when the current revision was installed.
func (r *Registry) LoadedAt() time.Time {
	return r.snapshot().loadedAt
}

// ResolveQuery builds the BAQ call for route name. Every required
// parameter must be present with a non-empty value.
func (r *Registry) ResolveQuery(name string, params []bridge.Param) (bridge.Query, error) {
	route, ok := r.Query(name)
	if !ok {
		return bridge.Query{}, fmt.Errorf("query %q: %w", name, ErrNotFound)
	}

	for _, req := range route.RequiredParams {
		if v, ok := bridge.Lookup(params, req); !ok || strings.TrimSpace(v) == "" {
			return bridge.Query{}, &InputError{Param: req, Message: MessageInputEmpty}
		}
	}

	return bridge.Query{ID: route.BAQID, Verb: route.Method, Params: params}, nil
}

// ResolveFunction builds the function call for route name. Routed
// functions pick their function id from the selector parameter, compared
// case-insensitively.
func (r *Registry) ResolveFunction(name string, params []bridge.Param, body json.RawMessage) (bridge.Function, error) {
	route, ok := r.Function(name)
	if !ok {
		return bridge.Function{}, fmt.Errorf("function %q: %w", name, ErrNotFound)
	}

	fnID := route.FunctionID
	if route.Selector != "" {
		v, ok := bridge.Lookup(params, route.Selector)
		v = strings.ToLower(strings.TrimSpace(v))
		if !ok || v == "" {
			return bridge.Function{}, &InputError{Param: route.Selector, Message: MessageInputEmpty}
		}
		id, ok := route.Variants[v]
		if !ok {
			return bridge.Function{}, &InputError{
				Param:   route.Selector,
				Message: fmt.Sprintf("unsupported value %q", v),
			}
		}
		fnID = id
	}

	return bridge.Function{Library: route.Library, FunctionID: fnID, Body: body}, nil
}
