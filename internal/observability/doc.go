// Package observability provides production-grade observability infrastructure
// including structured logging and OpenTelemetry tracing for the worker binary.
//
// Prometheus metrics are not centralized here: each pipeline stage
// (ingest, dedup, alert, embed) owns and self-registers its own Metrics
// struct via promauto, scoped to that stage's concerns rather than a
// single shared registry.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - tracing: OpenTelemetry span helpers for the background pipeline
//
// Example usage:
//
//	import "catchup-feed/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//	}
package observability
