package config

import "time"

// Default configuration values.
const (
	DefaultAddr      = "0.0.0.0:8080"
	DefaultRateBurst = 10

	DefaultBundleDebounce = 500 * time.Millisecond

	DefaultTargetTimeout = 10 * time.Second
	DefaultMessage       = "I sent you a secret message *giggle*"

	DefaultReadinessInterval = time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default service configuration. Bundle path and target
// URL have no defaults and must be provided.
func Default() *ServiceConfig {
	return &ServiceConfig{
		Server: ServerSection{
			Addr:      DefaultAddr,
			RateBurst: DefaultRateBurst,
		},
		Bundle: BundleSection{
			Watch:    true,
			Debounce: DefaultBundleDebounce,
		},
		Target: TargetSection{
			Timeout: DefaultTargetTimeout,
			Message: DefaultMessage,
		},
		Readiness: ReadinessSection{
			Interval: DefaultReadinessInterval,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
