// Package metrics provides Prometheus metrics for the pitch mechanics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket layouts for the domain histograms.
var (
	deviationBuckets = []float64{0, 10, 25, 50, 75, 100}
	fatigueBuckets   = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	latencyBucketsMs = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	framesScored    prometheus.Counter
	framesDiscarded *prometheus.CounterVec
	clipsScored     *prometheus.CounterVec
	clipsUnscorable prometheus.Counter
	clipsDuplicate  prometheus.Counter
	clipDeviation   prometheus.Histogram
	clipLatency     prometheus.Histogram
	profileLookups  *prometheus.CounterVec
	fatigueAssessed *prometheus.CounterVec
	fatigueScore    prometheus.Histogram
	outingsTracked  prometheus.Gauge
	resultsStored   prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry, which defaults to the Prometheus default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchmech",
		subsystem:        "engine",
		histogramBuckets: latencyBucketsMs,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: buckets, ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.framesScored = auto.NewCounter(m.counterOpts("frames_scored_total",
		"Frames that contributed to a clip deviation"))
	m.framesDiscarded = auto.NewCounterVec(m.counterOpts("frames_discarded_total",
		"Frames excluded from a clip, by the first component that could not be computed"),
		[]string{"component"})
	m.clipsScored = auto.NewCounterVec(m.counterOpts("clips_scored_total",
		"Scorable clips by variance category"), []string{"category"})
	m.clipsUnscorable = auto.NewCounter(m.counterOpts("clips_unscorable_total",
		"Clips where too few frames qualified"))
	m.clipsDuplicate = auto.NewCounter(m.counterOpts("clips_duplicate_total",
		"Clip submissions rejected as duplicates"))
	m.clipDeviation = auto.NewHistogram(m.histogramOpts("clip_deviation_percent",
		"Distribution of clip mean deviation percentages", deviationBuckets))
	m.clipLatency = auto.NewHistogram(m.histogramOpts("clip_scoring_latency_milliseconds",
		"Time to score one clip", m.histogramBuckets))
	m.profileLookups = auto.NewCounterVec(m.counterOpts("profile_lookups_total",
		"Mechanics profile lookups by source and result"), []string{"source", "result"})
	m.fatigueAssessed = auto.NewCounterVec(m.counterOpts("fatigue_assessments_total",
		"Fatigue assessments by recommendation"), []string{"recommendation"})
	m.fatigueScore = auto.NewHistogram(m.histogramOpts("fatigue_score",
		"Distribution of fatigue scores", fatigueBuckets))
	m.outingsTracked = auto.NewGauge(m.gaugeOpts("outings_tracked",
		"Pitchers with an open outing"))
	m.resultsStored = auto.NewGauge(m.gaugeOpts("results_stored",
		"Clip results held for status polling"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Clip jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Clip queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Clip jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Clip jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Clip jobs rejected by a full or closed queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured scoring workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active", "Workers currently scoring a clip"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"End-to-end worker time per clip job", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Clip jobs that failed"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})
}

// NewMetricsManager is an alias for NewManager.
func NewMetricsManager(opts ...Option) *Manager {
	return NewManager(opts...)
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordFrameScored counts n frames that contributed to a clip.
func RecordFrameScored(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.framesScored.Add(float64(n))
	}
}

// RecordFrameDiscarded counts a discarded frame under its first missing
// component.
func RecordFrameDiscarded(component string) {
	if globalManager.enabled {
		globalManager.framesDiscarded.WithLabelValues(component).Inc()
	}
}

// RecordClipScored records a scorable clip.
func RecordClipScored(category string, deviationPct, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.clipsScored.WithLabelValues(category).Inc()
	globalManager.clipDeviation.Observe(deviationPct)
	globalManager.clipLatency.Observe(latencyMs)
}

// RecordClipUnscorable records a clip that produced no percentage.
func RecordClipUnscorable() {
	if globalManager.enabled {
		globalManager.clipsUnscorable.Inc()
	}
}

// RecordClipDuplicate records a rejected duplicate submission.
func RecordClipDuplicate() {
	if globalManager.enabled {
		globalManager.clipsDuplicate.Inc()
	}
}

// RecordProfileLookup records a profile store lookup; result is "hit",
// "miss" or "error".
func RecordProfileLookup(source, result string) {
	if globalManager.enabled {
		globalManager.profileLookups.WithLabelValues(source, result).Inc()
	}
}

// RecordFatigueAssessment records one assessment. score is ignored when the
// assessment failed.
func RecordFatigueAssessment(recommendation string, score *int) {
	if !globalManager.enabled {
		return
	}
	globalManager.fatigueAssessed.WithLabelValues(recommendation).Inc()
	if score != nil {
		globalManager.fatigueScore.Observe(float64(*score))
	}
}

// UpdateOutingsTracked sets the number of open outings.
func UpdateOutingsTracked(n int) {
	if globalManager.enabled {
		globalManager.outingsTracked.Set(float64(n))
	}
}

// UpdateResultsStored sets the number of retained clip results.
func UpdateResultsStored(n int) {
	if globalManager.enabled {
		globalManager.resultsStored.Set(float64(n))
	}
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount adjusts the number of busy workers by delta.
func UpdateWorkerActiveCount(delta int) {
	if globalManager.enabled {
		globalManager.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency observes a job's processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration in ms.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
