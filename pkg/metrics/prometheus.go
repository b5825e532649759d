// Package metrics provides Prometheus metrics for the truerecord service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Refresh pipeline
	refreshRuns     *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	weekFetches     *prometheus.CounterVec
	weeksAggregated prometheus.Gauge
	teamsTracked    prometheus.Gauge

	// Upstream sports-data API
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec

	// Cache
	cacheOpLatency *prometheus.HistogramVec
	cacheErrors    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Refresh job queue and workers
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueRejected  *prometheus.CounterVec
	workerActive   prometheus.Gauge
	jobsProcessed  *prometheus.CounterVec
	jobLatency     prometheus.Histogram
	errorsByOrigin *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide collectors

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // collectors must exist before any Record call
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "truerecord",
		subsystem:        "service",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.refreshRuns = m.counterVec("refresh_runs_total", "Season refresh runs by outcome", "outcome")
	m.refreshDuration = m.histogram("refresh_duration_milliseconds", "Wall time of a full season refresh", m.histogramBuckets)
	m.weekFetches = m.counterVec("week_fetches_total", "Weekly score fetches by outcome (ok, failed, cached)", "outcome")
	m.weeksAggregated = m.gauge("weeks_aggregated", "Weeks folded into the last season aggregate")
	m.teamsTracked = m.gauge("teams_tracked", "Teams in the last season aggregate")

	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds", "Sports-data API request latency", "endpoint")
	m.upstreamErrors = m.counterVec("upstream_errors_total", "Sports-data API failures by kind", "kind")

	m.cacheOpLatency = m.histogramVec("cache_op_latency_milliseconds", "Cache operation latency", "op")
	m.cacheErrors = m.counterVec("cache_errors_total", "Cache operation failures", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Refresh jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Refresh job queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Refresh jobs accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Refresh jobs handed to workers")
	m.queueRejected = m.counterVec("queue_rejected_total", "Refresh jobs rejected by the queue", "reason")
	m.workerActive = m.gauge("worker_active_count", "Workers currently executing a job")
	m.jobsProcessed = m.counterVec("jobs_processed_total", "Refresh jobs finished by status", "status")
	m.jobLatency = m.histogram("job_latency_milliseconds", "Refresh job execution time", m.histogramBuckets)
	m.errorsByOrigin = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRefresh counts a finished refresh run and its duration.
func RecordRefresh(outcome string, durationMs float64) {
	globalManager.refreshRuns.WithLabelValues(outcome).Inc()
	globalManager.refreshDuration.Observe(durationMs)
}

// RecordWeekFetch counts a weekly fetch by outcome.
func RecordWeekFetch(outcome string) {
	globalManager.weekFetches.WithLabelValues(outcome).Inc()
}

// UpdateSeasonSize sets the weeks and teams of the latest aggregate.
func UpdateSeasonSize(weeks, teams int) {
	globalManager.weeksAggregated.Set(float64(weeks))
	globalManager.teamsTracked.Set(float64(teams))
}

// RecordUpstreamLatency records a sports-data API call.
func RecordUpstreamLatency(endpoint string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordUpstreamError counts a sports-data API failure.
func RecordUpstreamError(kind string) {
	globalManager.upstreamErrors.WithLabelValues(kind).Inc()
}

// RecordCacheOp records the latency of a cache operation and counts failures.
func RecordCacheOp(op string, latencyMs float64, failed bool) {
	globalManager.cacheOpLatency.WithLabelValues(op).Observe(latencyMs)
	if failed {
		globalManager.cacheErrors.WithLabelValues(op).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActive.Add(float64(delta))
}

// RecordJob counts a finished job and its execution time.
func RecordJob(status string, latencyMs float64) {
	globalManager.jobsProcessed.WithLabelValues(status).Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByOrigin.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
