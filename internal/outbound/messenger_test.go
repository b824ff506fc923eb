package outbound

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/siege-leviathan/internal/identity"
	bundles "github.com/yndnr/siege-leviathan/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMTLSServer starts a TLS server presenting server's certificate and
// requiring a client certificate signed by one of clients.
func newMTLSServer(t *testing.T, server *bundles.Bundle, clients []*bundles.Bundle, h http.HandlerFunc) *httptest.Server {
	t.Helper()

	pool := x509.NewCertPool()
	for _, c := range clients {
		pool.AddCert(c.Cert)
	}

	srv := httptest.NewUnstartedServer(h)
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{server.TLSCertificate(t)},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
		MinVersion:   tls.VersionTLS12,
	}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

// echoPeer replies with "<client CN>|<request body>".
func echoPeer(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	cn := ""
	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
		cn = r.TLS.PeerCertificates[0].Subject.CommonName
	}
	fmt.Fprintf(w, "%s|%s", cn, body)
}

func clientConfig(t *testing.T, trust *bundles.Bundle, id *bundles.Bundle) *tls.Config {
	t.Helper()
	return &tls.Config{
		RootCAs:      trust.CertPool(),
		Certificates: []tls.Certificate{id.TLSCertificate(t)},
		MinVersion:   tls.VersionTLS12,
	}
}

func TestMessenger_Send(t *testing.T) {
	alpha := bundles.NewBundle(t, "alpha")
	srv := newMTLSServer(t, alpha, []*bundles.Bundle{alpha}, echoPeer)

	// The same bundle is both trust anchor and identity.
	ctx, err := identity.NewBuilder().BuildPEM("alpha.pem", alpha.PEM())
	if err != nil {
		t.Fatalf("BuildPEM() error = %v", err)
	}

	m := New(srv.URL, WithLogger(quietLogger()))
	defer m.Close()

	resp, err := m.Send(context.Background(), ctx.Config, "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.OK() {
		t.Errorf("Send() status = %d, want 200", resp.StatusCode)
	}
	if resp.Body != "alpha|hello" {
		t.Errorf("Send() body = %q, want %q", resp.Body, "alpha|hello")
	}
}

func TestMessenger_Send_RelaysNon2xx(t *testing.T) {
	alpha := bundles.NewBundle(t, "alpha")
	srv := newMTLSServer(t, alpha, []*bundles.Bundle{alpha}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "short and stout")
	})

	m := New(srv.URL, WithLogger(quietLogger()))
	resp, err := m.Send(context.Background(), clientConfig(t, alpha, alpha), "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.StatusCode != http.StatusTeapot || resp.OK() {
		t.Errorf("Send() status = %d, want 418", resp.StatusCode)
	}
	if resp.Body != "short and stout" {
		t.Errorf("Send() body = %q", resp.Body)
	}
}

func TestMessenger_Send_ConnectErrors(t *testing.T) {
	alpha := bundles.NewBundle(t, "alpha")
	rogue := bundles.NewBundle(t, "rogue")
	mallory := bundles.NewBundle(t, "mallory")

	srv := newMTLSServer(t, alpha, []*bundles.Bundle{alpha}, echoPeer)

	closed := httptest.NewTLSServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		target string
		cfg    *tls.Config
	}{
		{"untrusted server", srv.URL, clientConfig(t, rogue, alpha)},
		{"rejected client", srv.URL, clientConfig(t, alpha, mallory)},
		{"connection refused", closedURL, clientConfig(t, alpha, alpha)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.target, WithLogger(quietLogger()), WithTimeout(5*time.Second))
			defer m.Close()

			resp, err := m.Send(context.Background(), tt.cfg, "hello")
			if err == nil {
				t.Fatalf("Send() = %+v, want error", resp)
			}

			var ce *ConnectError
			if !errors.As(err, &ce) {
				t.Fatalf("Send() error = %T %v, want *ConnectError", err, err)
			}
			if ce.URL != tt.target {
				t.Errorf("ConnectError.URL = %q, want %q", ce.URL, tt.target)
			}
			if !strings.Contains(err.Error(), tt.target) {
				t.Errorf("error %q should name the target", err)
			}
		})
	}
}

func TestMessenger_Send_Timeout(t *testing.T) {
	alpha := bundles.NewBundle(t, "alpha")
	srv := newMTLSServer(t, alpha, []*bundles.Bundle{alpha}, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	m := New(srv.URL, WithLogger(quietLogger()), WithTimeout(50*time.Millisecond))
	defer m.Close()

	_, err := m.Send(context.Background(), clientConfig(t, alpha, alpha), "hello")
	var ce *ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("Send() error = %v, want *ConnectError", err)
	}
	if !ce.Timeout() {
		t.Errorf("ConnectError.Timeout() = false for %v", ce.Err)
	}
}

func TestMessenger_Send_NilConfig(t *testing.T) {
	m := New("https://127.0.0.1:1")
	if _, err := m.Send(context.Background(), nil, "x"); !errors.Is(err, ErrNoTLSConfig) {
		t.Errorf("Send() error = %v, want ErrNoTLSConfig", err)
	}
}

func TestMessenger_Send_InvalidURL(t *testing.T) {
	alpha := bundles.NewBundle(t, "alpha")
	m := New("://bad", WithLogger(quietLogger()))

	_, err := m.Send(context.Background(), clientConfig(t, alpha, alpha), "x")
	if err == nil {
		t.Fatal("Send() should fail for an invalid URL")
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		t.Errorf("Send() error = %v, invalid URL is not a connect error", err)
	}
}

func TestMessenger_RotatesTransport(t *testing.T) {
	server := bundles.NewBundle(t, "server")
	alpha := bundles.NewBundle(t, "alpha")
	beta := bundles.NewBundle(t, "beta")
	srv := newMTLSServer(t, server, []*bundles.Bundle{alpha, beta}, echoPeer)

	reg := prometheus.NewRegistry()
	m := New(srv.URL, WithLogger(quietLogger())).RegisterMetrics(reg)
	defer m.Close()

	alphaCfg := clientConfig(t, server, alpha)
	betaCfg := clientConfig(t, server, beta)

	steps := []struct {
		cfg  *tls.Config
		want string
	}{
		{alphaCfg, "alpha|1"},
		{alphaCfg, "alpha|2"},
		{betaCfg, "beta|3"},
		{betaCfg, "beta|4"},
	}
	for i, step := range steps {
		resp, err := m.Send(context.Background(), step.cfg, fmt.Sprint(i+1))
		if err != nil {
			t.Fatalf("Send() #%d error = %v", i+1, err)
		}
		if resp.Body != step.want {
			t.Errorf("Send() #%d body = %q, want %q", i+1, resp.Body, step.want)
		}
	}

	if got := testutil.ToFloat64(m.metrics.transports); got != 1 {
		t.Errorf("transport_rotations_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.metrics.requests.WithLabelValues(resultSuccess)); got != 4 {
		t.Errorf("requests_total{success} = %v, want 4", got)
	}
}

func TestConnectError(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	err := &ConnectError{URL: "https://peer", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("ConnectError should unwrap to its cause")
	}
	if got := err.Error(); got != "failed to connect to https://peer: dial tcp: refused" {
		t.Errorf("Error() = %q", got)
	}
	if err.Timeout() {
		t.Error("Timeout() = true for a non-timeout error")
	}
	if !(&ConnectError{Err: context.DeadlineExceeded}).Timeout() {
		t.Error("Timeout() = false for DeadlineExceeded")
	}
}
