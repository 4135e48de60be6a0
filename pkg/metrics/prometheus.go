// Package metrics provides Prometheus metrics for the study progress tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	logins        prometheus.Counter
	signups       prometheus.Counter
	logouts       prometheus.Counter
	deletions     prometheus.Counter
	rosterSize    prometheus.Gauge
	sessionActive prometheus.Gauge

	// Remote store traffic
	progressUpdates     prometheus.Counter
	remoteWriteFailures *prometheus.CounterVec
	remoteReadFailures  prometheus.Counter
	rosterRefreshes     prometheus.Counter
	writeQueueSize      prometheus.Gauge
	remoteWriteLatency  prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tracker",
		subsystem:        "progress",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.logins = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logins_total",
		Help:      "Total number of successful nickname logins",
	})

	m.signups = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signups_total",
		Help:      "Total number of first-time logins that created a remote record",
	})

	m.logouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logouts_total",
		Help:      "Total number of logouts",
	})

	m.deletions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "account_deletions_total",
		Help:      "Total number of account deletions confirmed by the remote store",
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_size",
		Help:      "Current number of progress records held in memory",
	})

	m.sessionActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_active",
		Help:      "1 when a user is logged in, 0 otherwise",
	})

	m.progressUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "updates_total",
		Help:      "Total number of progress updates applied locally",
	})

	m.remoteWriteFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "remote_write_failures_total",
			Help:      "Total number of failed remote store writes by operation",
		},
		[]string{"op"},
	)

	m.remoteReadFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_read_failures_total",
		Help:      "Total number of failed roster fetches from the remote store",
	})

	m.rosterRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_refreshes_total",
		Help:      "Total number of successful wholesale roster refreshes",
	})

	m.writeQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "write_queue_size",
		Help:      "Current depth of the async remote write queue",
	})

	m.remoteWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_write_latency_milliseconds",
		Help:      "Latency of remote store writes in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers operating on the global manager.

func RecordLogin()           { globalManager.logins.Inc() }
func RecordSignup()          { globalManager.signups.Inc() }
func RecordLogout()          { globalManager.logouts.Inc() }
func RecordAccountDeletion() { globalManager.deletions.Inc() }

func UpdateRosterSize(n int) { globalManager.rosterSize.Set(float64(n)) }

func UpdateSessionActive(active bool) {
	if active {
		globalManager.sessionActive.Set(1)
		return
	}
	globalManager.sessionActive.Set(0)
}

func RecordProgressUpdate() { globalManager.progressUpdates.Inc() }

func RecordRemoteWriteFailure(op string) {
	globalManager.remoteWriteFailures.WithLabelValues(op).Inc()
}

func RecordRemoteReadFailure() { globalManager.remoteReadFailures.Inc() }
func RecordRosterRefresh()     { globalManager.rosterRefreshes.Inc() }

func UpdateWriteQueueSize(n int) { globalManager.writeQueueSize.Set(float64(n)) }

func RecordRemoteWriteLatency(latencyMs float64) {
	globalManager.remoteWriteLatency.Observe(latencyMs)
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry served from /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
