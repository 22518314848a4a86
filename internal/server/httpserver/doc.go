// Package httpserver provides the admin HTTP server for KrishnaDB.
//
// It exposes operational endpoints only, using stdlib net/http:
//
//   - GET /health: liveness with key count and version
//   - GET /ready: 200 once the snapshot has been recovered
//   - GET /metrics: Prometheus exposition
//
// Requests pass through RequestID, Recover, AccessLog and an optional
// NetworkACL.
package httpserver
