// Package metrics provides Prometheus metrics for the matchpulse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	scoreBuckets   []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Scoring
	sweeps          *prometheus.CounterVec
	jobsEnqueued    *prometheus.CounterVec
	jobsDropped     *prometheus.CounterVec
	jobsProcessed   *prometheus.CounterVec
	jobErrors       *prometheus.CounterVec
	liveSkipped     prometheus.Counter
	contextRetries  prometheus.Counter
	scores          *prometheus.HistogramVec
	jobLatency      *prometheus.HistogramVec
	publishOutcomes *prometheus.CounterVec

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueErrors      *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerActive     prometheus.Gauge

	// Feed
	feedSize    prometheus.Gauge
	feedUpdates prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	goroutines prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "matchpulse",
		subsystem:      "engine",
		latencyBuckets: prometheus.ExponentialBuckets(1, 2, 14),
		scoreBuckets:   prometheus.LinearBuckets(0, 0.1, 11),
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sweeps = auto.NewCounterVec(m.counterOpts("sweeps_total", "Scheduled sweeps run, by job kind"), []string{"kind"})
	m.jobsEnqueued = auto.NewCounterVec(m.counterOpts("jobs_enqueued_total", "Jobs accepted by the queue"), []string{"kind"})
	m.jobsDropped = auto.NewCounterVec(m.counterOpts("jobs_dropped_total", "Jobs not enqueued, by reason"), []string{"kind", "reason"})
	m.jobsProcessed = auto.NewCounterVec(m.counterOpts("jobs_processed_total", "Jobs scored and persisted"), []string{"kind"})
	m.jobErrors = auto.NewCounterVec(m.counterOpts("job_errors_total", "Job failures by stage"), []string{"kind", "stage"})
	m.liveSkipped = auto.NewCounter(m.counterOpts("live_skipped_total", "Live jobs without a usable statistics snapshot"))
	m.contextRetries = auto.NewCounter(m.counterOpts("context_retries_total", "Retried match context lookups"))
	m.scores = auto.NewHistogramVec(
		m.histogramOpts("score", "Distribution of computed excitement scores", m.scoreBuckets),
		[]string{"kind"},
	)
	m.jobLatency = auto.NewHistogramVec(
		m.histogramOpts("job_latency_milliseconds", "Time to process one job", m.latencyBuckets),
		[]string{"kind"},
	)
	m.publishOutcomes = auto.NewCounterVec(m.counterOpts("publish_total", "Score publications by outcome"), []string{"outcome"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Successful enqueue operations"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Dequeue operations"))
	m.queueErrors = auto.NewCounterVec(m.counterOpts("queue_errors_total", "Rejected enqueue operations by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently processing a job"))

	m.feedSize = auto.NewGauge(m.gaugeOpts("feed_size", "Matches in the ranked feed"))
	m.feedUpdates = auto.NewCounter(m.counterOpts("feed_updates_total", "Ranked feed updates"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and type"),
		[]string{"endpoint", "error_type"},
	)

	m.goroutines = auto.NewGauge(m.gaugeOpts("goroutines", "Number of goroutines"))
}

// RecordSweep counts a scheduled sweep.
func RecordSweep(kind string) { globalManager.sweeps.WithLabelValues(kind).Inc() }

// RecordJobEnqueued counts an accepted job.
func RecordJobEnqueued(kind string) { globalManager.jobsEnqueued.WithLabelValues(kind).Inc() }

// RecordJobDropped counts a job that did not make it onto the queue.
func RecordJobDropped(kind, reason string) {
	globalManager.jobsDropped.WithLabelValues(kind, reason).Inc()
}

// RecordJobProcessed counts a completed job.
func RecordJobProcessed(kind string) { globalManager.jobsProcessed.WithLabelValues(kind).Inc() }

// RecordJobError counts a failed job stage (context, compute, persist, publish).
func RecordJobError(kind, stage string) {
	globalManager.jobErrors.WithLabelValues(kind, stage).Inc()
}

// RecordLiveSkipped counts a live job that produced no update.
func RecordLiveSkipped() { globalManager.liveSkipped.Inc() }

// RecordContextRetry counts one retried context lookup.
func RecordContextRetry() { globalManager.contextRetries.Inc() }

// RecordScore observes a computed score.
func RecordScore(kind string, score float64) {
	globalManager.scores.WithLabelValues(kind).Observe(score)
}

// RecordJobLatency observes job processing time in milliseconds.
func RecordJobLatency(kind string, latencyMs float64) {
	globalManager.jobLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordPublish counts a publication attempt by outcome ("ok" or "error").
func RecordPublish(outcome string) { globalManager.publishOutcomes.WithLabelValues(outcome).Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueError counts a rejected enqueue.
func RecordQueueError(reason string) { globalManager.queueErrors.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActive.Set(float64(count)) }

// UpdateFeedSize sets the number of ranked matches.
func UpdateFeedSize(size int) { globalManager.feedSize.Set(float64(size)) }

// RecordFeedUpdate counts a feed upsert.
func RecordFeedUpdate() { globalManager.feedUpdates.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// UpdateGoroutineCount sets the number of goroutines.
func UpdateGoroutineCount(count int) { globalManager.goroutines.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
