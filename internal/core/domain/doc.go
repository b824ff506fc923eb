// Package domain defines the core domain values for siege-leviathan.
//
// Domain values carry no IO dependencies. This package contains:
//
//   - Exchange: one message sent to the remote peer and its reply
//   - Errors: structured error codes surfaced at the inbound boundary
package domain
