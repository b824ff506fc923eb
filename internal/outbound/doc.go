// Package outbound sends messages to the remote peer over mTLS.
//
// A Messenger performs one HTTPS POST per Send using whatever *tls.Config
// the caller hands it. It keeps an http.Transport for the most recent
// config and replaces it when the config changes, so connections opened
// with a rotated-out identity are not reused.
//
// Every transport-level failure is returned as a *ConnectError. A remote
// non-2xx status is not an error: the body is still a response.
package outbound
