package config

import "time"

// ServiceConfig is the root configuration for siege-leviathan.
type ServiceConfig struct {
	Server    ServerSection    `koanf:"server"`
	Bundle    BundleSection    `koanf:"bundle"`
	Target    TargetSection    `koanf:"target"`
	Readiness ReadinessSection `koanf:"readiness"`
	Metrics   MetricsSection   `koanf:"metrics"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures the inbound HTTP listener.
type ServerSection struct {
	Addr string `koanf:"addr"`

	// RateLimit is the request rate allowed on GET / (requests/second).
	// 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// BundleSection configures the client certificate bundle.
type BundleSection struct {
	// Path is the combined PEM certificate chain and private key.
	Path string `koanf:"path"`

	// Watch enables the fsnotify pre-warm of the cache on file events.
	Watch    bool          `koanf:"watch"`
	Debounce time.Duration `koanf:"debounce"`
}

// TargetSection configures the remote peer.
type TargetSection struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Message string        `koanf:"message"`
}

// ReadinessSection configures the startup gate.
type ReadinessSection struct {
	Interval time.Duration `koanf:"interval"`
	// Timeout bounds the total wait. 0 waits until shutdown.
	Timeout time.Duration `koanf:"timeout"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
