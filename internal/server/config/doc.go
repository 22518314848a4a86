// Package config provides server configuration for KrishnaDB.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, limits, key strength)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - size.go: human readable byte sizes ("512MB")
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and KRISHNADB_* environment variables.
package config
