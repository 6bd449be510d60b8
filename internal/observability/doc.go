// Package observability owns process metrics and HTTP request instrumentation.
//
// Metrics are registered lazily on first record so packages can record without
// coordinating registration order.
package observability
