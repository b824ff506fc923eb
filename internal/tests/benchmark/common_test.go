package benchmark

import (
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"

	bundles "github.com/yndnr/siege-leviathan/internal/testutil"
)

// ConcurrencyLevels are the goroutine multipliers for parallel benchmarks.
var ConcurrencyLevels = []int{1, 4, 16}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeBundle writes a fresh bundle into a temp dir and returns its path.
func writeBundle(b *testing.B) (string, *bundles.Bundle) {
	b.Helper()

	path := filepath.Join(b.TempDir(), "bundle.pem")
	return path, bundles.WriteBundle(b, path, "bench-client")
}

// newPeer starts an mTLS echo server trusting bundle.
func newPeer(b *testing.B, bundle *bundles.Bundle) *httptest.Server {
	b.Helper()

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(w, r.Body)
	}))
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{bundle.TLSCertificate(b)},
		ClientCAs:    bundle.CertPool(),
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}
	srv.StartTLS()
	b.Cleanup(srv.Close)
	return srv
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}
