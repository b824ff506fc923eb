package outbound

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds one Send, including the handshake.
	DefaultTimeout = 10 * time.Second

	// MaxResponseBytes caps how much of the remote body is read.
	MaxResponseBytes = 1 << 20

	defaultUserAgent = "siege-leviathan/1.0"
)

// ErrNoTLSConfig is returned by Send when called without a TLS config.
var ErrNoTLSConfig = errors.New("outbound: nil TLS config")

// ConnectError reports a failure to reach the remote peer or read its
// response: DNS, dial, TLS handshake, timeout or a broken body.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *ConnectError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Response is the remote peer's reply.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports whether the remote answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Messenger posts payloads to a fixed target URL.
type Messenger struct {
	target    string
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
	metrics   *messengerMetrics

	mu        sync.Mutex
	tlsConfig *tls.Config
	client    *http.Client
	transport *http.Transport
}

// Option configures a Messenger.
type Option func(*Messenger)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Messenger) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Messenger) {
		m.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(m *Messenger) {
		m.userAgent = ua
	}
}

// New creates a Messenger for target.
func New(target string, opts ...Option) *Messenger {
	m := &Messenger{
		target:    target,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Target returns the target URL.
func (m *Messenger) Target() string {
	return m.target
}

// Send posts payload to the target using cfg as the client TLS config.
// Transport failures are returned as *ConnectError.
func (m *Messenger) Send(ctx context.Context, cfg *tls.Config, payload string) (*Response, error) {
	if cfg == nil {
		return nil, ErrNoTLSConfig
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.target, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("outbound: create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("User-Agent", m.userAgent)

	start := time.Now()
	resp, err := m.clientFor(cfg).Do(req)
	if err != nil {
		m.metrics.observe(resultConnectError, time.Since(start))
		return nil, &ConnectError{URL: m.target, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		m.metrics.observe(resultConnectError, time.Since(start))
		return nil, &ConnectError{URL: m.target, Err: fmt.Errorf("read response: %w", err)}
	}

	out := &Response{StatusCode: resp.StatusCode, Body: string(body)}
	result := resultSuccess
	if !out.OK() {
		result = resultHTTPError
	}
	m.metrics.observe(result, time.Since(start))

	m.logger.Debug("outbound message sent",
		"target", m.target,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	return out, nil
}

// Close releases idle connections.
func (m *Messenger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != nil {
		m.transport.CloseIdleConnections()
	}
}

// clientFor returns the client for cfg, replacing the transport when cfg is
// not the one it was built for.
func (m *Messenger) clientFor(cfg *tls.Config) *http.Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.tlsConfig == cfg {
		return m.client
	}

	old := m.transport
	m.transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       cfg,
		TLSHandshakeTimeout:   m.timeout,
		ResponseHeaderTimeout: m.timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		ForceAttemptHTTP2:     true,
	}
	m.client = &http.Client{Transport: m.transport, Timeout: m.timeout}
	m.tlsConfig = cfg

	if old != nil {
		old.CloseIdleConnections()
		m.metrics.transportRotated()
		m.logger.Info("outbound transport replaced for new identity", "target", m.target)
	}

	return m.client
}

// unwrapURLError strips the *url.Error wrapper so messages do not repeat
// the method and URL already carried by ConnectError.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
