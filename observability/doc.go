// Package observability wires OpenTelemetry tracing and metrics for
// wavechat: provider bootstrap over OTLP/HTTP, span helpers used by the
// session orchestrator, and the backend request instruments used by the
// HTTP client.
package observability
