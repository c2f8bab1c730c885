// Package observability groups the bot's logging, metrics and tracing helpers.
//
// Subpackages:
//   - logging: slog construction and context propagation (cycle_id)
//   - metrics: Prometheus instrumentation of outbound HTTP calls
//   - tracing: OpenTelemetry spans around each cycle stage
package observability
