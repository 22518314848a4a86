// Package tests holds end-to-end tests that run the storage engine, the
// TCP server and the client together.
//
//	go test ./internal/tests/...
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
package tests
