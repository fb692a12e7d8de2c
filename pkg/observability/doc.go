// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry tracing for the building search service.
package observability
