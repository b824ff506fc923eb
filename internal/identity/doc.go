// Package identity maintains the process's mTLS client identity.
//
// The identity is built from a single PEM bundle (certificate chain
// followed by its private key) that an external agent rotates on disk:
//
//   - watcher.go: StatWatcher reports the bundle's current mtime
//   - builder.go: Builder turns a bundle into a client *tls.Config
//   - cache.go: Cache serves the current context, reloading on mtime change
//     and falling back to the last good context when a reload fails
//   - ready.go: WaitReady gates startup on the same predicate as reloads
//   - metrics.go: Prometheus instrumentation for the cache
//
// A Cache is constructed once at startup and shared by every request
// path. It is safe for concurrent use.
package identity
