package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for type introspection.
// A nil *Metrics and a disabled one both record nothing.
type Metrics struct {
	config MetricsConfig

	// Cache metrics
	lookups      *prometheus.CounterVec
	cacheEntries prometheus.Gauge
	publishRaces prometheus.Counter
	unpublished  prometheus.Counter

	// Retrieval metrics
	retrievals        *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	retrievalErrors   *prometheus.CounterVec

	// Command metrics
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of type info lookups by cache result",
			},
			[]string{"result"},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_entries",
				Help:      "Current number of cached type descriptors",
			},
		),
		publishRaces: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_publish_races_total",
				Help:      "Total number of lookups whose result lost the insert race to a concurrent lookup",
			},
		),
		unpublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_unpublished_total",
				Help:      "Total number of lookups not published because the caller's context ended",
			},
		),

		retrievals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrievals_total",
				Help:      "Total number of template and schema retrievals",
			},
			[]string{"part", "status"},
		),
		retrievalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Duration of template and schema retrievals in seconds",
				Buckets:   buckets,
			},
			[]string{"part"},
		),
		retrievalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_errors_total",
				Help:      "Total number of failed retrievals by error kind",
			},
			[]string{"part", "kind"},
		),

		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of external commands executed",
			},
			[]string{"executor", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of external command executions in seconds",
				Buckets:   buckets,
			},
			[]string{"executor"},
		),
	}

	registry.MustRegister(
		m.lookups,
		m.cacheEntries,
		m.publishRaces,
		m.unpublished,
		m.retrievals,
		m.retrievalDuration,
		m.retrievalErrors,
		m.commands,
		m.commandDuration,
	)

	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// Cache Metrics

// RecordLookup records a cache lookup; hit is false for misses.
func (m *Metrics) RecordLookup(hit bool) {
	if !m.enabled() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

// SetCacheEntries sets the current number of cached descriptors.
func (m *Metrics) SetCacheEntries(count int) {
	if !m.enabled() {
		return
	}
	m.cacheEntries.Set(float64(count))
}

// RecordPublishRace counts a lookup whose descriptor was discarded in favour of a concurrent winner.
func (m *Metrics) RecordPublishRace() {
	if !m.enabled() {
		return
	}
	m.publishRaces.Inc()
}

// RecordUnpublished counts a lookup that was returned without being cached.
func (m *Metrics) RecordUnpublished() {
	if !m.enabled() {
		return
	}
	m.unpublished.Inc()
}

// Retrieval Metrics

// RecordRetrieval records one template or schema retrieval.
// errKind is empty on success.
func (m *Metrics) RecordRetrieval(part, errKind string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	status := "success"
	if errKind != "" {
		status = "failure"
		m.retrievalErrors.WithLabelValues(part, errKind).Inc()
	}
	m.retrievals.WithLabelValues(part, status).Inc()
	m.retrievalDuration.WithLabelValues(part).Observe(duration.Seconds())
}

// Command Metrics

// RecordCommand records one external command execution.
func (m *Metrics) RecordCommand(executor string, err error, duration time.Duration) {
	if !m.enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.commands.WithLabelValues(executor, status).Inc()
	m.commandDuration.WithLabelValues(executor).Observe(duration.Seconds())
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server exposing metrics in the background.
// It returns nil without starting anything when metrics are disabled or no
// listen address is configured.
func (m *Metrics) StartMetricsServer() (*http.Server, error) {
	if !m.enabled() || m.config.ListenAddress == "" {
		return nil, nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("address", m.config.ListenAddress).Msg("metrics server error")
		}
	}()

	return server, nil
}
