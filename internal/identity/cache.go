package identity

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when no context has ever been built. Callers
// should treat it as "not ready yet", not as a process fault.
var ErrUnavailable = errors.New("identity: no valid context available")

// State is the outcome of a Cache lookup.
type State int

const (
	// StateLoaded means the context matches the bundle currently on disk.
	StateLoaded State = iota + 1
	// StateStale means the bundle could not be loaded and an older context
	// is being served instead.
	StateStale
	// StateUnavailable means there is no context to serve.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateStale:
		return "stale"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is a tagged lookup result. Context is non-nil for StateLoaded and
// StateStale; Reason is set for StateStale and StateUnavailable.
type Result struct {
	State   State
	Context *Context
	// ModTime is the bundle mtime the returned context was built from.
	ModTime time.Time
	Reason  error
}

// Usable reports whether the result carries a context.
func (r Result) Usable() bool {
	return r.Context != nil
}

// entry is one published (context, mtime) pair. Entries are immutable and
// replaced wholesale.
type entry struct {
	ctx      *Context
	modTime  time.Time
	loadedAt time.Time
}

type staleness struct {
	since  time.Time
	reason error
}

// Cache owns the current client TLS context for one bundle path. Lookups
// compare the bundle's mtime against the mtime of the active context and
// rebuild only on change. A failed rebuild keeps the previous context and
// retries on the next lookup.
type Cache struct {
	path    string
	stater  Stater
	builder ContextBuilder
	logger  *slog.Logger
	now     func() time.Time
	metrics *cacheMetrics

	current atomic.Pointer[entry]
	stale   atomic.Pointer[staleness]
	group   singleflight.Group
	warn    *rate.Limiter
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStater replaces the filesystem stat source.
func WithStater(s Stater) CacheOption {
	return func(c *Cache) {
		c.stater = s
	}
}

// WithBuilder replaces the context builder.
func WithBuilder(b ContextBuilder) CacheOption {
	return func(c *Cache) {
		c.builder = b
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithCacheClock sets the clock used for load and staleness timestamps.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty cache for the bundle at path. Nothing is read
// until the first Get.
func NewCache(path string, opts ...CacheOption) *Cache {
	c := &Cache{
		path:    path,
		stater:  StatWatcher{},
		builder: NewBuilder(),
		logger:  slog.Default(),
		now:     time.Now,
		warn:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the bundle path.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the current context, rebuilding it if the bundle changed.
func (c *Cache) Get() Result {
	modTime, err := c.stater.ModTime(c.path)
	cur := c.current.Load()

	if err != nil {
		if cur != nil {
			c.markStale(cur, err)
			c.metrics.fallback(fallbackNotFound)
			c.warnFallback("bundle not readable, serving previous context", err, cur)
			return Result{State: StateStale, Context: cur.ctx, ModTime: cur.modTime, Reason: err}
		}
		c.metrics.unavailableInc()
		return Result{State: StateUnavailable, Reason: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}

	if cur != nil && cur.modTime.Equal(modTime) {
		if c.stale.Load() != nil {
			c.stale.Store(nil)
		}
		return Result{State: StateLoaded, Context: cur.ctx, ModTime: cur.modTime}
	}

	return c.reload(modTime)
}

// Context returns the context to use, or an error wrapping ErrUnavailable.
// Stale contexts are returned without error.
func (c *Cache) Context() (*Context, error) {
	r := c.Get()
	if !r.Usable() {
		return nil, r.Reason
	}
	return r.Context, nil
}

// TLSConfig is Context for callers that only need the *tls.Config.
func (c *Cache) TLSConfig() (*tls.Config, error) {
	ctx, err := c.Context()
	if err != nil {
		return nil, err
	}
	return ctx.Config, nil
}

// Ready returns nil once a context can be served. It runs a full Get, so a
// successful probe also primes the cache.
func (c *Cache) Ready() error {
	r := c.Get()
	if r.State == StateUnavailable {
		return r.Reason
	}
	return nil
}

// reload builds the bundle for modTime. Concurrent callers that observed the
// same mtime share one build.
func (c *Cache) reload(modTime time.Time) Result {
	key := strconv.FormatInt(modTime.UnixNano(), 10)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Published by an earlier flight while this caller was statting.
		if cur := c.current.Load(); cur != nil && cur.modTime.Equal(modTime) {
			return cur, nil
		}

		ctx, err := c.builder.Build(c.path)
		c.metrics.build(err)
		if err != nil {
			return nil, err
		}

		next := &entry{ctx: ctx, modTime: modTime, loadedAt: c.now()}
		prev := c.current.Swap(next)
		c.stale.Store(nil)
		c.metrics.published(next, prev != nil)

		msg := "identity context loaded"
		if prev != nil {
			msg = "identity context reloaded"
		}
		args := []any{
			"bundle_path", c.path,
			"mod_time", modTime,
			"subject", ctx.Subject(),
		}
		if ctx.Leaf != nil {
			args = append(args, "not_after", ctx.Leaf.NotAfter)
		}
		c.logger.Info(msg, args...)
		return next, nil
	})

	if err == nil {
		e := v.(*entry)
		return Result{State: StateLoaded, Context: e.ctx, ModTime: e.modTime}
	}

	// The active mtime is left untouched so the next lookup retries.
	if cur := c.current.Load(); cur != nil {
		c.markStale(cur, err)
		c.metrics.fallback(fallbackBuildFailed)
		c.warnFallback("bundle changed but failed to build, serving previous context", err, cur)
		return Result{State: StateStale, Context: cur.ctx, ModTime: cur.modTime, Reason: err}
	}

	c.metrics.unavailableInc()
	c.logger.Debug("bundle not loadable yet", "bundle_path", c.path, "error", err)
	return Result{State: StateUnavailable, Reason: fmt.Errorf("%w: %w", ErrUnavailable, err)}
}

// markStale records that cur is being served in place of the bundle on disk.
// A publish clears staleness after swapping the entry, so if cur has been
// replaced by the time the mark lands, the mark is withdrawn.
func (c *Cache) markStale(cur *entry, reason error) {
	for {
		old := c.stale.Load()
		next := &staleness{since: c.now(), reason: reason}
		if old != nil {
			next.since = old.since
		}
		if !c.stale.CompareAndSwap(old, next) {
			continue
		}
		if c.current.Load() != cur {
			c.stale.CompareAndSwap(next, nil)
		}
		return
	}
}

func (c *Cache) warnFallback(msg string, err error, cur *entry) {
	args := []any{
		"bundle_path", c.path,
		"error", err,
		"active_mod_time", cur.modTime,
	}
	if c.warn.Allow() {
		c.logger.Warn(msg, args...)
		return
	}
	c.logger.Debug(msg, args...)
}

// Staleness returns how long the active context has been served while the
// bundle on disk could not be loaded. It is zero when the context is fresh
// or when nothing is loaded. The value only advances as lookups observe the
// bundle.
func (c *Cache) Staleness() time.Duration {
	s := c.stale.Load()
	if s == nil || c.current.Load() == nil {
		return 0
	}
	return c.now().Sub(s.since)
}

// Status is a point-in-time description of the cache.
type Status struct {
	State         string     `json:"state"`
	BundlePath    string     `json:"bundle_path"`
	Subject       string     `json:"subject,omitempty"`
	NotAfter      *time.Time `json:"not_after,omitempty"`
	SourceModTime *time.Time `json:"source_mod_time,omitempty"`
	LoadedAt      *time.Time `json:"loaded_at,omitempty"`
	StaleSince    *time.Time `json:"stale_since,omitempty"`
	StaleSeconds  float64    `json:"stale_seconds"`
	LastError     string     `json:"last_error,omitempty"`
}

// Status reports the cache state without touching the filesystem.
func (c *Cache) Status() Status {
	st := Status{State: "empty", BundlePath: c.path}

	cur := c.current.Load()
	if cur == nil {
		return st
	}

	st.State = "loaded"
	st.Subject = cur.ctx.Subject()
	modTime, loadedAt := cur.modTime, cur.loadedAt
	st.SourceModTime = &modTime
	st.LoadedAt = &loadedAt
	if cur.ctx.Leaf != nil {
		notAfter := cur.ctx.Leaf.NotAfter
		st.NotAfter = &notAfter
	}

	if s := c.stale.Load(); s != nil {
		since := s.since
		st.State = "stale"
		st.StaleSince = &since
		st.StaleSeconds = c.now().Sub(since).Seconds()
		if s.reason != nil {
			st.LastError = s.reason.Error()
		}
	}

	return st
}
