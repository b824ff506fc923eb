package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultReadyInterval is the pause between readiness probes.
const DefaultReadyInterval = time.Second

// ErrNotReady is returned by WaitReady when the gate gives up.
var ErrNotReady = errors.New("identity: not ready")

// Probe reports nil once the identity can be served. Cache.Ready is the
// usual probe.
type Probe func() error

type gate struct {
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// GateOption configures WaitReady.
type GateOption func(*gate)

// WithInterval sets the pause between probes.
func WithInterval(d time.Duration) GateOption {
	return func(g *gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithTimeout bounds the total wait. Zero waits until ctx is done.
func WithTimeout(d time.Duration) GateOption {
	return func(g *gate) {
		g.timeout = d
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *gate) {
		g.logger = logger
	}
}

// WaitReady blocks until probe succeeds. The first probe runs immediately;
// later probes are paced at the configured interval. It returns an error
// wrapping ErrNotReady when ctx is done or the timeout elapses.
func WaitReady(ctx context.Context, probe Probe, opts ...GateOption) error {
	g := &gate{
		interval: DefaultReadyInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Every(g.interval), 1)
	start := time.Now()
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails early when the next slot is past the deadline.
			<-ctx.Done()
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%w after %d attempts: %w", ErrNotReady, attempt-1, lastErr)
		}

		lastErr = probe()
		if lastErr == nil {
			g.logger.Info("identity ready",
				"attempts", attempt,
				"waited", time.Since(start).Round(time.Millisecond),
			)
			return nil
		}

		g.logger.Info("identity not ready, waiting",
			"attempt", attempt,
			"retry_in", g.interval,
			"error", lastErr,
		)
	}
}
