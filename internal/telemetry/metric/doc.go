// Package metric provides the Prometheus registry for siege-leviathan.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with Go and process collectors, HTTP handler
//   - collector.go: Build information collector
//
// Component metrics (identity cache, outbound messenger) are defined next
// to the code that updates them and registered on this registry. Metrics
// are exposed at /metrics in Prometheus text format.
package metric
