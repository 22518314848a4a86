// Package logger provides structured logging for KrishnaDB.
//
// It wraps log/slog:
//
//   - logger.go: handler setup, JSON or text output, global level
//   - context.go: connection IDs and loggers carried in a context
//   - redact.go: masking of secret-looking attributes
//
// Components take a *slog.Logger; Logger.Slog provides one.
package logger
