// Package benchmark measures client round trips against a live server.
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
package benchmark
