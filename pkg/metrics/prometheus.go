// Package metrics provides Prometheus metrics for the ranking-points service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Award computation
	awardsComputed    prometheus.Counter
	awardsSkipped     *prometheus.CounterVec
	profileSelections *prometheus.CounterVec
	qualityWins       prometheus.Counter
	scoringLatency    prometheus.Histogram
	scoringErrors     prometheus.Counter

	// Aggregation
	aggregationLatency  prometheus.Histogram
	participantsRanked  prometheus.Gauge
	rankingListsBuilt   prometheus.Counter
	droppedResults      prometheus.Counter
	aggregationErrors   prometheus.Counter
	unbucketedAwards    prometheus.Counter
	personlessAwards    prometheus.Counter
	minimumNotMetPeople prometheus.Gauge

	// Standings snapshots
	snapshotPublishDuration prometheus.Histogram
	snapshotLastUnix        prometheus.Gauge
	snapshotCount           prometheus.Counter
	snapshotQueryLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "podium",
		subsystem:      "ranking",
		latencyBuckets: LatencyBuckets,
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.latencyBuckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.awardsComputed = m.counter("awards_computed_total", "Point awards emitted by the point computation engine")
	m.awardsSkipped = m.counterVec("awards_skipped_total", "Participant results that produced no award", "reason")
	m.profileSelections = m.counterVec("profile_selections_total", "Award profile selections by profile name", "profile")
	m.qualityWins = m.counter("quality_wins_total", "Wins over ranked opponents that earned a bonus")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time to compute one award set in milliseconds")
	m.scoringErrors = m.counter("scoring_errors_total", "Award computations that failed")

	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds", "Time to build one ranking list in milliseconds")
	m.participantsRanked = m.gauge("participants_ranked", "Participants on the latest ranking list")
	m.rankingListsBuilt = m.counter("ranking_lists_built_total", "Ranking lists generated")
	m.droppedResults = m.counter("dropped_results_total", "Results excluded by counting caps")
	m.aggregationErrors = m.counter("aggregation_errors_total", "Aggregations that failed")
	m.unbucketedAwards = m.counter("unbucketed_awards_total", "Awards no counting bucket accepted")
	m.personlessAwards = m.counter("awards_without_person_total", "Awards left out of person standings for lack of a person id")
	m.minimumNotMetPeople = m.gauge("minimum_not_met_participants", "Participants below the minimum countable results")

	m.snapshotPublishDuration = m.histogram("snapshot_publish_duration_milliseconds", "Standings snapshot publish duration in milliseconds")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix timestamp of the last standings snapshot publish")
	m.snapshotCount = m.counter("snapshot_count_total", "Standings snapshots published")
	m.snapshotQueryLatency = m.histogram("snapshot_query_latency_milliseconds", "Standings snapshot query latency in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.latencyBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and kind", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
}

// RecordAwardComputed increments the emitted award counter.
func RecordAwardComputed() {
	globalManager.awardsComputed.Inc()
}

// RecordAwardSkipped counts a result that produced no award.
func RecordAwardSkipped(reason string) {
	globalManager.awardsSkipped.WithLabelValues(reason).Inc()
}

// RecordProfileSelection counts a profile chosen for a participation.
func RecordProfileSelection(profile string) {
	if profile == "" {
		profile = "unnamed"
	}
	globalManager.profileSelections.WithLabelValues(profile).Inc()
}

// RecordQualityWin counts a win that earned a quality bonus.
func RecordQualityWin() {
	globalManager.qualityWins.Inc()
}

// RecordScoringLatency records award computation latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordAggregationLatency records ranking list generation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// UpdateParticipantsRanked sets the size of the latest ranking list.
func UpdateParticipantsRanked(count int) {
	globalManager.participantsRanked.Set(float64(count))
}

// RecordRankingListBuilt increments the ranking list counter.
func RecordRankingListBuilt() {
	globalManager.rankingListsBuilt.Inc()
}

// RecordDroppedResults adds n results excluded by counting caps.
func RecordDroppedResults(n int) {
	if n > 0 {
		globalManager.droppedResults.Add(float64(n))
	}
}

// RecordAggregationError increments the aggregation errors counter.
func RecordAggregationError() {
	globalManager.aggregationErrors.Inc()
}

// RecordUnbucketedAward counts an award no bucket accepted.
func RecordUnbucketedAward() {
	globalManager.unbucketedAwards.Inc()
}

// RecordAwardsWithoutPerson counts awards left out of person standings.
func RecordAwardsWithoutPerson(n int) {
	globalManager.personlessAwards.Add(float64(n))
}

// UpdateMinimumNotMet sets how many participants miss the minimum result count.
func UpdateMinimumNotMet(count int) {
	globalManager.minimumNotMetPeople.Set(float64(count))
}

// RecordSnapshotPublish records one standings snapshot publish.
func RecordSnapshotPublish(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	globalManager.snapshotPublishDuration.Observe(ms)
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
	globalManager.snapshotCount.Inc()
}

// RecordSnapshotQueryLatency records a standings read in milliseconds.
func RecordSnapshotQueryLatency(latencyMs float64) {
	globalManager.snapshotQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
