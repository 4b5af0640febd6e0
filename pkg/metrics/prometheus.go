// Package metrics provides Prometheus metrics for the dispatch recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the dispatch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recommendation pipeline
	recommendationRequests  prometheus.Counter
	recommendationEmpty     prometheus.Counter
	candidatesScored        prometheus.Counter
	candidatesFiltered      *prometheus.CounterVec
	slotFinderLatency       prometheus.Histogram
	scoringLatency          prometheus.Histogram
	recommendationLatency   prometheus.Histogram
	distanceResolveFailures prometheus.Counter
	distancePartialResults  prometheus.Counter

	// Weights configuration
	activeConfigVersion prometheus.Gauge
	configWrites        prometheus.Counter
	configConflicts     prometheus.Counter
	configRollbacks     prometheus.Counter

	// Audit pipeline
	auditQueueSize     prometheus.Gauge
	auditQueueCapacity prometheus.Gauge
	auditEnqueued      prometheus.Counter
	auditDropped       prometheus.Counter
	auditWritten       prometheus.Counter
	auditWriteErrors   prometheus.Counter
	auditWriteLatency  prometheus.Histogram
	auditWorkerCount   prometheus.Gauge

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

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dispatch",
		subsystem:        "recommend",
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

	m.recommendationRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total recommendation requests handled",
	})
	m.recommendationEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "empty_results_total",
		Help:      "Recommendation requests where every candidate was hard-filtered",
	})
	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Candidates that reached the scoring stage",
	})
	m.candidatesFiltered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_filtered_total",
		Help:      "Candidates excluded before scoring, by reason",
	}, []string{"reason"})
	m.slotFinderLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slot_finder_latency_milliseconds",
		Help:      "Availability slot computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Per-candidate scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.recommendationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_latency_milliseconds",
		Help:      "End-to-end recommendation request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.distanceResolveFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "distance_resolve_failures_total",
		Help:      "Batch distance resolutions that failed entirely",
	})
	m.distancePartialResults = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "distance_partial_results_total",
		Help:      "Candidates scored with an unknown distance sentinel",
	})

	m.activeConfigVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "weights",
		Name:      "active_version",
		Help:      "Version number of the currently active weights config",
	})
	m.configWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "weights",
		Name:      "writes_total",
		Help:      "Weights config versions created (updates and rollbacks)",
	})
	m.configConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "weights",
		Name:      "version_conflicts_total",
		Help:      "Version-claim races detected during config writes",
	})
	m.configRollbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "weights",
		Name:      "rollbacks_total",
		Help:      "Rollback operations performed on the weights config",
	})

	m.auditQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "queue_size",
		Help:      "Current depth of the audit write queue",
	})
	m.auditQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "queue_capacity",
		Help:      "Maximum capacity of the audit write queue",
	})
	m.auditEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "enqueued_total",
		Help:      "Audit records accepted into the write queue",
	})
	m.auditDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "dropped_total",
		Help:      "Audit records dropped due to backpressure",
	})
	m.auditWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "written_total",
		Help:      "Audit records persisted",
	})
	m.auditWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "write_errors_total",
		Help:      "Audit record persistence failures",
	})
	m.auditWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "write_latency_milliseconds",
		Help:      "Audit record write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.auditWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "audit",
		Name:      "worker_count",
		Help:      "Number of audit writer workers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry returns the registry backing the global manager, for serving /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

func RecordRecommendationRequest() { globalManager.recommendationRequests.Inc() }
func RecordRecommendationEmpty()   { globalManager.recommendationEmpty.Inc() }
func RecordCandidateScored()       { globalManager.candidatesScored.Inc() }

func RecordCandidateFiltered(reason string) {
	globalManager.candidatesFiltered.WithLabelValues(reason).Inc()
}

func RecordSlotFinderLatency(ms float64)     { globalManager.slotFinderLatency.Observe(ms) }
func RecordScoringLatency(ms float64)        { globalManager.scoringLatency.Observe(ms) }
func RecordRecommendationLatency(ms float64) { globalManager.recommendationLatency.Observe(ms) }
func RecordDistanceResolveFailure()          { globalManager.distanceResolveFailures.Inc() }
func RecordDistancePartialResult()           { globalManager.distancePartialResults.Inc() }

func UpdateActiveConfigVersion(version int64) {
	globalManager.activeConfigVersion.Set(float64(version))
}

func RecordConfigWrite()                    { globalManager.configWrites.Inc() }
func RecordConfigConflict()                 { globalManager.configConflicts.Inc() }
func RecordConfigRollback()                 { globalManager.configRollbacks.Inc() }
func UpdateAuditQueueSize(size int)         { globalManager.auditQueueSize.Set(float64(size)) }
func UpdateAuditQueueCapacity(capacity int) { globalManager.auditQueueCapacity.Set(float64(capacity)) }
func RecordAuditEnqueued()                  { globalManager.auditEnqueued.Inc() }
func RecordAuditDropped()                   { globalManager.auditDropped.Inc() }
func RecordAuditWritten()                   { globalManager.auditWritten.Inc() }
func RecordAuditWriteError()                { globalManager.auditWriteErrors.Inc() }
func RecordAuditWriteLatency(ms float64)    { globalManager.auditWriteLatency.Observe(ms) }
func UpdateAuditWorkerCount(count int)      { globalManager.auditWorkerCount.Set(float64(count)) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}
