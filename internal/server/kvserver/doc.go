// Package kvserver serves KrishnaDB commands over TCP.
//
// Each request is one array value: the command keyword followed by text
// arguments. Each request gets exactly one response value.
//
// Supported commands:
//   - PING [msg]
//   - GET, SET, DELETE, FLUSH
//   - MGET, MSET, EDIT
//   - SETFILE, GETSIZE, TESTINSERT
//
// Connections are served by a bounded pool. A malformed frame closes
// its connection. A failed command only produces an error response.
package kvserver
