// Package tlsroots provides TLS trust and identity primitives for siege-leviathan.
//
// This package handles the low-level certificate plumbing:
//
//   - roots.go: PEM bundles into certificate pools and client TLS configs
//   - watcher.go: Bundle change notification via fsnotify
//
// Features:
//
//   - Combined certificate+key bundles (non-certificate blocks are skipped)
//   - Directory-level watching that survives rename-based rotation
//   - Debounced change callbacks
package tlsroots
