package identity

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/siege-leviathan/internal/infra/tlsroots"
)

// BuildErrorKind classifies why a bundle could not be built.
type BuildErrorKind int

const (
	// KindUnreadable means the bundle file could not be read.
	KindUnreadable BuildErrorKind = iota + 1
	// KindMalformed means the bundle holds no parseable certificate.
	KindMalformed
	// KindKeyMismatch means the private key is missing or does not match
	// the leaf certificate.
	KindKeyMismatch
	// KindExpired means the leaf certificate is outside its validity window.
	KindExpired
)

func (k BuildErrorKind) String() string {
	switch k {
	case KindUnreadable:
		return "unreadable"
	case KindMalformed:
		return "malformed"
	case KindKeyMismatch:
		return "key_mismatch"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// BuildError is returned when a bundle cannot be turned into a TLS context.
// During a non-atomic rotation it is transient.
type BuildError struct {
	Kind BuildErrorKind
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("identity: build %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError reports whether err is a BuildError of the given kind. A zero
// kind matches any BuildError.
func IsBuildError(err error, kind BuildErrorKind) bool {
	var be *BuildError
	if !errors.As(err, &be) {
		return false
	}
	return kind == 0 || be.Kind == kind
}

// Context is a ready-to-use client TLS context. Config is shared by every
// caller and must not be modified; Clone it first.
type Context struct {
	Config *tls.Config
	Leaf   *x509.Certificate
}

// Subject returns the leaf certificate's subject, or "" when unknown.
func (c *Context) Subject() string {
	if c == nil || c.Leaf == nil {
		return ""
	}
	return c.Leaf.Subject.String()
}

// ContextBuilder builds a Context from a bundle path.
type ContextBuilder interface {
	Build(path string) (*Context, error)
}

// Builder is the standard ContextBuilder. It reads the bundle once and uses
// it twice: as the trust anchor for verifying the server and as the
// client's own certificate and key. It never caches or retries.
type Builder struct {
	now        func() time.Time
	serverName string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the clock used for validity checks.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithServerName pins the name used to verify the server certificate.
// By default the name is taken from the dialled address.
func WithServerName(name string) BuilderOption {
	return func(b *Builder) {
		b.serverName = name
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads path and returns a client Context, or a *BuildError.
func (b *Builder) Build(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &BuildError{Kind: KindUnreadable, Path: path, Err: err}
	}
	return b.BuildPEM(path, data)
}

// BuildPEM builds a Context from bundle bytes. path is used only for errors.
func (b *Builder) BuildPEM(path string, data []byte) (*Context, error) {
	// Trust store: every certificate in the bundle.
	roots := tlsroots.NewEmptyPool()
	if err := roots.AddCertPEM(data); err != nil {
		return nil, &BuildError{Kind: KindMalformed, Path: path, Err: err}
	}

	// Identity: the same bundle as combined cert+key.
	if !tlsroots.HasPrivateKey(data) {
		return nil, &BuildError{Kind: KindKeyMismatch, Path: path, Err: tlsroots.ErrNoPrivateKey}
	}
	cert, err := tls.X509KeyPair(data, data)
	if err != nil {
		return nil, &BuildError{Kind: KindKeyMismatch, Path: path, Err: err}
	}

	leaf := cert.Leaf
	if leaf == nil {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, &BuildError{Kind: KindMalformed, Path: path, Err: err}
		}
		cert.Leaf = leaf
	}

	now := b.now()
	if now.Before(leaf.NotBefore) {
		return nil, &BuildError{Kind: KindExpired, Path: path,
			Err: fmt.Errorf("certificate not valid before %s", leaf.NotBefore.UTC().Format(time.RFC3339))}
	}
	if now.After(leaf.NotAfter) {
		return nil, &BuildError{Kind: KindExpired, Path: path,
			Err: fmt.Errorf("certificate expired at %s", leaf.NotAfter.UTC().Format(time.RFC3339))}
	}

	config := roots.ClientTLSConfig(cert)
	config.ServerName = b.serverName

	return &Context{Config: config, Leaf: leaf}, nil
}
