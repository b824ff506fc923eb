package identity

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	fallbackNotFound    = "not_found"
	fallbackBuildFailed = "build_failed"
)

// cacheMetrics is nil until RegisterMetrics is called; every method is a
// no-op on a nil receiver.
type cacheMetrics struct {
	builds      *prometheus.CounterVec
	reloads     prometheus.Counter
	fallbacks   *prometheus.CounterVec
	unavailable prometheus.Counter
	loadedAt    prometheus.Gauge
	sourceMTime prometheus.Gauge
	staleness   prometheus.GaugeFunc
}

// RegisterMetrics registers the cache's Prometheus metrics with registry.
//
// This should be called once during initialization, before the cache is
// shared. Returns the cache for method chaining.
func (c *Cache) RegisterMetrics(registry prometheus.Registerer) *Cache {
	m := &cacheMetrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "builds_total",
			Help:      "TLS context build attempts by result",
		}, []string{"result"}),

		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "reloads_total",
			Help:      "Successful replacements of an already loaded TLS context",
		}),

		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "fallbacks_total",
			Help:      "Lookups answered with a previous TLS context, by reason",
		}, []string{"reason"}),

		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "unavailable_total",
			Help:      "Lookups that found no TLS context to serve",
		}),

		loadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "loaded_timestamp_seconds",
			Help:      "Unix time the active TLS context was built",
		}),

		sourceMTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leviathan",
			Subsystem: "identity",
			Name:      "source_mtime_seconds",
			Help:      "Modification time of the bundle the active TLS context was built from",
		}),
	}

	m.staleness = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "leviathan",
		Subsystem: "identity",
		Name:      "staleness_seconds",
		Help:      "How long the active TLS context has lagged an unloadable bundle (0 when fresh)",
	}, func() float64 {
		return c.Staleness().Seconds()
	})

	// Pre-create label values so the series exist before the first event.
	m.builds.WithLabelValues("success")
	m.builds.WithLabelValues("failure")
	m.fallbacks.WithLabelValues(fallbackNotFound)
	m.fallbacks.WithLabelValues(fallbackBuildFailed)

	registry.MustRegister(
		m.builds,
		m.reloads,
		m.fallbacks,
		m.unavailable,
		m.loadedAt,
		m.sourceMTime,
		m.staleness,
	)

	c.metrics = m
	return c
}

func (m *cacheMetrics) build(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.builds.WithLabelValues("failure").Inc()
		return
	}
	m.builds.WithLabelValues("success").Inc()
}

func (m *cacheMetrics) published(e *entry, replaced bool) {
	if m == nil {
		return
	}
	if replaced {
		m.reloads.Inc()
	}
	m.loadedAt.Set(float64(e.loadedAt.UnixNano()) / 1e9)
	m.sourceMTime.Set(float64(e.modTime.UnixNano()) / 1e9)
}

func (m *cacheMetrics) fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *cacheMetrics) unavailableInc() {
	if m == nil {
		return
	}
	m.unavailable.Inc()
}
