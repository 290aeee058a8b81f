// Package metrics provides Prometheus metrics for the posecoach analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers estimator calls and whole analyses, in milliseconds.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analysis metrics
	sessionsAnalyzed  *prometheus.CounterVec
	sessionsNoData    prometheus.Counter
	sessionsPartial   prometheus.Counter
	analysisLatency   prometheus.Histogram
	issueEvents       *prometheus.CounterVec
	tipsGenerated     prometheus.Counter
	framesSampled     *prometheus.CounterVec
	frameFailures     *prometheus.CounterVec
	estimatorLatency  prometheus.Histogram
	enrichRequests    *prometheus.CounterVec
	enrichLatency     prometheus.Histogram
	liveSessionsOpen  prometheus.Gauge
	liveFramesDropped prometheus.Counter

	// Job pipeline metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueRate        prometheus.Counter
	queueDequeueRate        prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter
	jobsTracked             prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "posecoach",
		subsystem:        "analytics",
		histogramBuckets: latencyBuckets,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.sessionsAnalyzed = m.counterVec("sessions_analyzed_total", "Sessions analyzed, by sampling mode", "mode")
	m.sessionsNoData = m.counter("sessions_no_data_total", "Sessions that produced the no-data report")
	m.sessionsPartial = m.counter("sessions_partial_total", "Sessions stopped early by cancellation")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "Wall time of one analysis", m.histogramBuckets)
	m.issueEvents = m.counterVec("issue_events_total", "Debounced issue events, by category", "category")
	m.tipsGenerated = m.counter("tips_generated_total", "Coaching tips produced")
	m.framesSampled = m.counterVec("frames_sampled_total", "Frames handed to the aggregator, by sampling mode", "mode")
	m.frameFailures = m.counterVec("frame_failures_total", "Frames skipped after a collaborator failure, by stage", "stage")
	m.estimatorLatency = m.histogram("estimator_latency_milliseconds", "Pose estimator call latency", m.histogramBuckets)
	m.enrichRequests = m.counterVec("enrichment_requests_total", "Enrichment calls, by outcome", "outcome")
	m.enrichLatency = m.histogram("enrichment_latency_milliseconds", "Enrichment call latency", m.histogramBuckets)
	m.liveSessionsOpen = m.gauge("live_sessions_open", "Open live websocket sessions")
	m.liveFramesDropped = m.counter("live_frames_dropped_total", "Live frames rejected as malformed or out of order")

	m.queueSize = m.gauge("queue_size", "Analysis jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected because the queue was full or closed")
	m.workerCount = m.gauge("worker_count", "Number of analysis workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job processing latency", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Jobs that failed in a worker")
	m.jobsTracked = m.gauge("jobs_tracked", "Jobs held in the result store")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSessionAnalyzed counts a finished analysis.
func RecordSessionAnalyzed(mode string) {
	globalManager.sessionsAnalyzed.WithLabelValues(mode).Inc()
}

// RecordSessionNoData counts an analysis without usable data.
func RecordSessionNoData() {
	globalManager.sessionsNoData.Inc()
}

// RecordSessionPartial counts a cancelled analysis.
func RecordSessionPartial() {
	globalManager.sessionsPartial.Inc()
}

// RecordAnalysisLatency records analysis wall time in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordIssueEvent counts a debounced issue event.
func RecordIssueEvent(category string) {
	globalManager.issueEvents.WithLabelValues(category).Inc()
}

// RecordTips adds n generated tips.
func RecordTips(n int) {
	globalManager.tipsGenerated.Add(float64(n))
}

// RecordFrameSampled counts a frame handed to the aggregator.
func RecordFrameSampled(mode string) {
	globalManager.framesSampled.WithLabelValues(mode).Inc()
}

// RecordFrameFailure counts a skipped frame.
func RecordFrameFailure(stage string) {
	globalManager.frameFailures.WithLabelValues(stage).Inc()
}

// RecordEstimatorLatency records one estimator call in milliseconds.
func RecordEstimatorLatency(latencyMs float64) {
	globalManager.estimatorLatency.Observe(latencyMs)
}

// RecordEnrichment counts an enrichment call by outcome ("ok", "error").
func RecordEnrichment(outcome string, latencyMs float64) {
	globalManager.enrichRequests.WithLabelValues(outcome).Inc()
	globalManager.enrichLatency.Observe(latencyMs)
}

// UpdateLiveSessions adjusts the open live session gauge by delta.
func UpdateLiveSessions(delta int) {
	globalManager.liveSessionsOpen.Add(float64(delta))
}

// RecordLiveFrameDropped counts a rejected live frame.
func RecordLiveFrameDropped() {
	globalManager.liveFramesDropped.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// UpdateJobsTracked sets the number of jobs in the result store.
func UpdateJobsTracked(count int) {
	globalManager.jobsTracked.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
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
