// Package testutil provides certificate bundle fixtures for tests.
//
// A bundle is a single PEM file holding a self-signed certificate followed
// by its ECDSA private key. Each generated certificate is valid for both
// server and client authentication on localhost and 127.0.0.1, so the
// same bundle can act as the trust anchor and the identity on both ends of
// an mTLS handshake.
package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"testing"
	"time"
)

// Bundle is a generated certificate and key pair.
type Bundle struct {
	CertPEM []byte
	KeyPEM  []byte
	Cert    *x509.Certificate
}

// PEM returns the combined certificate-then-key file contents.
func (b *Bundle) PEM() []byte {
	out := make([]byte, 0, len(b.CertPEM)+len(b.KeyPEM))
	out = append(out, b.CertPEM...)
	return append(out, b.KeyPEM...)
}

// TLSCertificate returns the pair as a tls.Certificate.
func (b *Bundle) TLSCertificate(t testing.TB) tls.Certificate {
	t.Helper()

	cert, err := tls.X509KeyPair(b.CertPEM, b.KeyPEM)
	if err != nil {
		t.Fatalf("X509KeyPair() error = %v", err)
	}
	return cert
}

// CertPool returns a pool containing only this bundle's certificate.
func (b *Bundle) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(b.Cert)
	return pool
}

// BundleOption adjusts the certificate template.
type BundleOption func(*x509.Certificate)

// WithValidity overrides the NotBefore/NotAfter window.
func WithValidity(notBefore, notAfter time.Time) BundleOption {
	return func(tmpl *x509.Certificate) {
		tmpl.NotBefore = notBefore
		tmpl.NotAfter = notAfter
	}
}

// NewBundle generates a self-signed bundle whose subject common name is cn.
func NewBundle(t testing.TB, cn string, opts ...BundleOption) *Bundle {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("rand.Int() error = %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   cn,
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
	}
	for _, opt := range opts {
		opt(tmpl)
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}

	return &Bundle{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
		Cert:    cert,
	}
}

// WriteBundle generates a bundle for cn and writes it to path.
func WriteBundle(t testing.TB, path, cn string) *Bundle {
	t.Helper()

	b := NewBundle(t, cn)
	WriteFile(t, path, b.PEM())
	return b
}

// WriteBundleAt writes a bundle for cn and pins the file's mtime to mtime.
func WriteBundleAt(t testing.TB, path, cn string, mtime time.Time) *Bundle {
	t.Helper()

	b := WriteBundle(t, path, cn)
	SetModTime(t, path, mtime)
	return b
}

// WriteFile writes data to path through a temp file and rename, the way a
// well-behaved rotation agent does.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Rename(%s) error = %v", path, err)
	}
}

// WriteFileAt writes data to path and pins the mtime.
func WriteFileAt(t testing.TB, path string, data []byte, mtime time.Time) {
	t.Helper()

	WriteFile(t, path, data)
	SetModTime(t, path, mtime)
}

// SetModTime sets both atime and mtime of path.
func SetModTime(t testing.TB, path string, mtime time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes(%s) error = %v", path, err)
	}
}
