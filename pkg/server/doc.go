// Package server wires the gateway handlers, health endpoints and metrics
// into one chi router and manages the HTTP server lifecycle.
//
// Routes:
//
//	GET  /health                      liveness
//	GET  /ready                       readiness (503 without a session)
//	GET  /version                     build information
//	GET  <metrics path>               Prometheus metrics, when enabled
//	     /api/v1/...                  API key required, gzip compressed
//
// Every route passes through recovery, logging, request id, tracing,
// metrics and the request deadline, in that order. Start does not install
// signal handlers; callers cancel its context instead.
package server
