// Package tracing configures OpenTelemetry tracing for the gateway.
//
// Tracing is off by default. When enabled, spans are exported over OTLP
// gRPC and W3C trace context is propagated: inbound traceparent headers
// become the parent of the request span, and outbound ERP calls carry the
// current span context.
package tracing
