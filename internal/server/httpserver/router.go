package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/siege-leviathan/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Courier performs the outbound exchange for GET /.
	Courier handler.Deliverer

	// Identity backs /ready and /status.
	Identity handler.IdentityStatus

	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the global limit for application routes in requests/second
	// (0 = off).
	RateLimit float64

	// RateBurst is the limiter burst size.
	RateBurst int

	// EnableAccessLog enables one log line per request.
	EnableAccessLog bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateBurst:       10,
		EnableAccessLog: true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(&handler.Config{
		Courier:  cfg.Courier,
		Identity: cfg.Identity,
		Metrics:  cfg.Metrics,
		Logger:   log,
	})

	// Order: Recover -> RequestID -> AccessLog -> RateLimit -> Handler
	app := []Middleware{Recover(log), RequestID()}
	if cfg.EnableAccessLog {
		app = append(app, AccessLog(log))
	}
	app = append(app, RateLimit(cfg.RateLimit, cfg.RateBurst))

	probe := []Middleware{Recover(log), RequestID()}

	mux := http.NewServeMux()

	probeHandler := Chain(h, probe...)
	mux.Handle("GET /health", probeHandler)
	mux.Handle("GET /ready", probeHandler)
	mux.Handle("GET /metrics", probeHandler)

	mux.Handle("/", Chain(h, app...))

	return mux
}
