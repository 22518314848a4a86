// Package metric provides Prometheus metrics for KrishnaDB.
//
//   - prometheus.go: Registry, the collectors it owns and the HTTP handler
//   - collector.go: a collector reading the live key count
//
// A nil *Registry is valid and records nothing, so packages can take one
// unconditionally.
//
// Metrics are exposed at /metrics on the admin HTTP server.
package metric
