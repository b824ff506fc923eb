// Package logger provides structured logging for siege-leviathan.
//
// It wraps the standard library log/slog:
//
//   - logger.go: handler construction, level control, process default
//   - context.go: request ID propagation through context.Context
//   - redact.go: sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level adjustment
//   - Private keys, passwords and URL credentials never reach the output
package logger
