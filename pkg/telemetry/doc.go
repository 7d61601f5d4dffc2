// Package telemetry groups the gateway's observability packages:
//
//   - logging: log/slog construction, request correlation and secret redaction
//   - metrics: Prometheus collector for sessions, operations and HTTP traffic
//   - tracing: OpenTelemetry tracer provider and W3C propagation
//   - health: liveness and readiness probes
package telemetry
