package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/siege-leviathan/internal/core/service"
	"github.com/yndnr/siege-leviathan/internal/identity"
	"github.com/yndnr/siege-leviathan/internal/infra/buildinfo"
	"github.com/yndnr/siege-leviathan/internal/infra/shutdown"
	"github.com/yndnr/siege-leviathan/internal/infra/tlsroots"
	"github.com/yndnr/siege-leviathan/internal/outbound"
	"github.com/yndnr/siege-leviathan/internal/server/config"
	"github.com/yndnr/siege-leviathan/internal/server/httpserver"
	"github.com/yndnr/siege-leviathan/internal/telemetry/logger"
	"github.com/yndnr/siege-leviathan/internal/telemetry/metric"
)

// shutdownTimeout bounds the shutdown hooks.
const shutdownTimeout = 10 * time.Second

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Wait for a valid client identity, then serve HTTP (default)",
		Flags:  configFlags(),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := initLogger(cfg, nil)
	if err != nil {
		return err
	}

	log.Info("starting "+buildinfo.Name,
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", config.Sanitize(cfg))

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	d := newDaemon(cfg, log)
	return d.run(ctx)
}

// daemon is the assembled service.
type daemon struct {
	cfg       *config.ServiceConfig
	log       *slog.Logger
	registry  *metric.Registry
	cache     *identity.Cache
	messenger *outbound.Messenger
	watcher   *tlsroots.Watcher
	router    http.Handler
	server    *httpserver.Server
}

// newDaemon wires every component. Nothing touches the network or the
// bundle until run.
func newDaemon(cfg *config.ServiceConfig, log *slog.Logger) *daemon {
	d := &daemon{cfg: cfg, log: log}

	var reg *metric.Registry
	if cfg.Metrics.Enabled {
		reg = metric.NewRegistry()
	}
	d.registry = reg

	d.cache = identity.NewCache(cfg.Bundle.Path,
		identity.WithLogger(log.With("component", "identity")))

	d.messenger = outbound.New(cfg.Target.URL,
		outbound.WithTimeout(cfg.Target.Timeout),
		outbound.WithUserAgent(buildinfo.Name+"/"+buildinfo.Version),
		outbound.WithLogger(log.With("component", "outbound")))

	if reg != nil {
		d.cache.RegisterMetrics(reg.Registerer())
		d.messenger.RegisterMetrics(reg.Registerer())
	}

	courier := service.NewCourier(d.cache, d.messenger, &service.CourierConfig{
		Message: cfg.Target.Message,
		Logger:  logger.FromSlog(log.With("component", "courier")),
	})

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Courier = courier
	routerCfg.Identity = d.cache
	routerCfg.Logger = log
	routerCfg.RateLimit = cfg.Server.RateLimit
	routerCfg.RateBurst = cfg.Server.RateBurst
	if reg != nil {
		routerCfg.Metrics = reg.Handler()
	}
	d.router = httpserver.NewRouter(routerCfg)
	d.server = httpserver.New(cfg.Server.Addr, d.router)

	return d
}

// startWatcher starts the change notifier. A watcher that cannot be created
// is logged and skipped; lookups still stat the bundle.
func (d *daemon) startWatcher() {
	if !d.cfg.Bundle.Watch {
		return
	}

	w, err := tlsroots.NewWatcher(d.cfg.Bundle.Path, func(string) {
		r := d.cache.Get()
		d.log.Debug("bundle change observed", "state", r.State.String())
	},
		tlsroots.WithLogger(d.log.With("component", "watcher")),
		tlsroots.WithDebounce(d.cfg.Bundle.Debounce),
	)
	if err != nil {
		d.log.Warn("bundle watcher disabled", "error", err)
		return
	}
	d.watcher = w
	w.StartAsync()
}

func (d *daemon) stopWatcher() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Stop()
}

// run gates on the identity, then serves until ctx is done. A shutdown
// request while still waiting for the identity is not an error.
func (d *daemon) run(ctx context.Context) error {
	d.startWatcher()

	d.log.Info("waiting for client identity",
		"bundle_path", d.cfg.Bundle.Path,
		"interval", d.cfg.Readiness.Interval)

	err := identity.WaitReady(ctx, d.cache.Ready,
		identity.WithInterval(d.cfg.Readiness.Interval),
		identity.WithTimeout(d.cfg.Readiness.Timeout),
		identity.WithGateLogger(d.log.With("component", "readiness")))
	if err != nil {
		d.stopWatcher()
		d.messenger.Close()
		if ctx.Err() != nil {
			d.log.Info("shutdown requested before identity was ready")
			return nil
		}
		return err
	}

	h := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse: server first, then the watcher and transports.
	h.OnShutdown(func(context.Context) error {
		d.messenger.Close()
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		return d.stopWatcher()
	})
	h.OnShutdown(func(ctx context.Context) error {
		d.log.Info("shutting down HTTP server")
		return d.server.Shutdown(ctx)
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		d.log.Info("HTTP server listening", "addr", d.server.Addr())
		if err := d.server.ListenAndServe(); err != nil {
			serveErr <- err
			cancel()
		}
	}()

	err = h.Wait(runCtx)

	select {
	case sErr := <-serveErr:
		return errors.Join(fmt.Errorf("http server: %w", sErr), err)
	default:
	}

	if err != nil {
		d.log.Error("shutdown error", "error", err)
		return err
	}
	d.log.Info("server stopped gracefully")
	return nil
}
