package identity

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var baseTime = time.Unix(1_700_000_000, 0)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bundlePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "bundle.pem")
}

// countingBuilder counts Build calls and delegates to inner.
type countingBuilder struct {
	inner ContextBuilder
	delay time.Duration
	calls atomic.Int32
}

func (b *countingBuilder) Build(path string) (*Context, error) {
	b.calls.Add(1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.inner.Build(path)
}

// fakeStater returns a settable mtime or error.
type fakeStater struct {
	mu    sync.Mutex
	mtime time.Time
	err   error
}

func (s *fakeStater) set(mtime time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mtime, s.err = mtime, err
}

func (s *fakeStater) ModTime(string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mtime, s.err
}

// manualClock is a settable clock.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(path string, opts ...CacheOption) (*Cache, *countingBuilder) {
	b := &countingBuilder{inner: NewBuilder()}
	opts = append([]CacheOption{WithBuilder(b), WithLogger(quietLogger())}, opts...)
	return NewCache(path, opts...), b
}

func commonName(r Result) string {
	if r.Context == nil || r.Context.Leaf == nil {
		return ""
	}
	return r.Context.Leaf.Subject.CommonName
}
