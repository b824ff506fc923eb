// Package service provides the domain services for siege-leviathan.
//
// Courier is the single request path: it takes the current client identity
// from the identity cache, sends the configured message to the remote peer
// through a Sender, and maps every failure onto a domain error. It holds no
// mutable state and is safe for concurrent use.
package service
