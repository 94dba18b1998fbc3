// Package tracing provides OpenTelemetry span helpers for the worker's
// background pipeline (ingest cycle, dedup evaluation, alert dispatch),
// rather than HTTP middleware — this binary serves no request-driven API
// beyond the ambient health/metrics surface.
package tracing
