// Package httpserver provides the inbound HTTP server for siege-leviathan.
//
// It wires the handler package behind a middleware chain:
//
//   - Recover: panics become a JSON error body
//   - RequestID: X-Request-ID propagation and generation
//   - AccessLog: one structured log line per request
//   - RateLimit: optional global request rate limit
//
// Probe and metrics routes skip the rate limit and access log.
package httpserver
