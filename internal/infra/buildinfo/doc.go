// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and the Go version fall back to the module's embedded build
// information when not set.
package buildinfo
