// Package metrics exposes Prometheus metrics for the gateway.
//
// A Collector owns its own registry and is wired in three places: as the
// session.Recorder of the session manager, as a bridge.Observer of the
// proxy, and as the sink of the HTTP metrics middleware. Handler serves
// the registry at the configured metrics path.
//
// Operation target labels are capped by a CardinalityLimiter because
// passthrough routes accept arbitrary BAQ and function identifiers.
package metrics
