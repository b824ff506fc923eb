// Package config provides the service configuration for siege-leviathan.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: ServiceConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (required bundle path and target, durations)
//   - sanitize.go: Log sanitization (hide credentials in URLs)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
