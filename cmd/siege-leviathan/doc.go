// Package main provides the entry point for siege-leviathan.
//
// siege-leviathan calls a remote peer over mutual TLS with a client
// certificate bundle that is rotated on disk by an external agent:
//
//   - Waits until the bundle builds into a valid TLS client context
//   - Serves GET /, which sends a message to the peer and relays its reply
//   - Rebuilds the context when the bundle's mtime changes, and keeps the
//     previous context while a new bundle cannot be loaded
//
// Usage:
//
//	siege-leviathan [flags]
//	siege-leviathan --config /etc/siege-leviathan/config.yaml
//	CERT_BUNDLE=/run/certs/bundle.pem TARGET_URL=https://minotaur:8443/ siege-leviathan
//	siege-leviathan check /run/certs/bundle.pem
package main
