package outbound

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess      = "success"
	resultHTTPError    = "http_error"
	resultConnectError = "connect_error"
)

type messengerMetrics struct {
	requests   *prometheus.CounterVec
	duration   prometheus.Histogram
	transports prometheus.Counter
}

// RegisterMetrics registers the messenger's Prometheus metrics with registry.
// Returns the messenger for method chaining.
func (m *Messenger) RegisterMetrics(registry prometheus.Registerer) *Messenger {
	mm := &messengerMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "outbound",
			Name:      "requests_total",
			Help:      "Outbound requests by result",
		}, []string{"result"}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leviathan",
			Subsystem: "outbound",
			Name:      "request_duration_seconds",
			Help:      "Outbound request latency including the TLS handshake",
			Buckets:   prometheus.DefBuckets,
		}),

		transports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "outbound",
			Name:      "transport_rotations_total",
			Help:      "Transports replaced because the client identity changed",
		}),
	}

	for _, r := range []string{resultSuccess, resultHTTPError, resultConnectError} {
		mm.requests.WithLabelValues(r)
	}

	registry.MustRegister(mm.requests, mm.duration, mm.transports)

	m.metrics = mm
	return m
}

func (mm *messengerMetrics) observe(result string, d time.Duration) {
	if mm == nil {
		return
	}
	mm.requests.WithLabelValues(result).Inc()
	mm.duration.Observe(d.Seconds())
}

func (mm *messengerMetrics) transportRotated() {
	if mm == nil {
		return
	}
	mm.transports.Inc()
}
