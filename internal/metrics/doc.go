// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Active and total WebSocket connection counts
//   - Inbound message rates partitioned by message type
//   - Outbound message, send failure, and decode error counts
//
// All recording methods are nil-safe so callers can carry a nil *Metrics
// when the metrics surface is disabled.
package metrics
