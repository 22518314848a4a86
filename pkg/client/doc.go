// Package client is a KrishnaDB client over a single TCP connection.
//
// A Client runs one request at a time; concurrent callers are serialized.
// Execute sends any command, and the typed helpers wrap the built-in
// ones. Each call reports the round-trip latency.
//
// Server error replies come back as *CommandError. I/O failures come back
// as *TransportError and leave the client broken: later calls fail fast
// and the caller should Dial again. Nothing is retried.
package client
