// Package handler provides the HTTP request handlers for siege-leviathan.
//
// Routes:
//
//   - GET /: send the configured message to the remote peer and report the
//     exchange as {"sentMessage", "remoteResponse"} or {"error"}
//   - GET /health: liveness
//   - GET /ready: 200 only once a client identity can be served
//   - GET /status: client identity status
//   - GET /metrics: Prometheus metrics, when a metrics handler is set
package handler
