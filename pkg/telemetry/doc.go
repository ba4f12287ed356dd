// Package telemetry wires OpenTelemetry tracing, metrics and correlation IDs
// into the cashier client.
//
// # Provider
//
// Setup installs a global tracer provider built from core.TelemetryConfig:
//   - otlp: spans are batched to an OTLP gRPC collector
//   - stdout: spans are pretty-printed, for local debugging
//   - disabled: the global no-op provider stays in place
//
// # HTTP Client
//
// NewTracedHTTPClient wraps a transport with otelhttp so every request to the
// POS API carries W3C trace context and produces a client span.
//
// # Correlation
//
// Each user action gets a correlation ID (uuid) that travels in the
// X-Correlation-ID header and in every log line via EnrichLogFields.
package telemetry
