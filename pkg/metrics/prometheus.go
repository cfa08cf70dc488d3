// Package metrics provides Prometheus metrics for the game catalog service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the catalog service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Catalog
	catalogRecords   prometheus.Gauge
	catalogResolved  prometheus.Gauge
	resolverHits     prometheus.Counter
	resolverMisses   prometheus.Counter
	storeQueryMillis prometheus.Histogram
	storeErrors      prometheus.Counter

	// Assets
	assetsTotal   prometheus.Gauge
	indexRebuilds prometheus.Counter
	listErrors    prometheus.Counter

	// Preload
	preloadLoaded     prometheus.Counter
	preloadFailed     prometheus.Counter
	preloadTotal      prometheus.Gauge
	preloadQueueSize  prometheus.Gauge
	preloadLatency    prometheus.Histogram
	preloadWorkers    prometheus.Gauge
	preloadDropped    prometheus.Counter
	preloadGeneration prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before anything records or the
// registry is handed to an HTTP handler.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
}

// RefreshInterval is the configured refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gamestore",
		subsystem:        "catalog",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
			Buckets: m.histogramBuckets, ConstLabels: labels,
		})
	}

	m.catalogRecords = gauge("records", "Number of game records returned by the last store query")
	m.catalogResolved = gauge("records_resolved", "Number of records with a resolvable image in the last catalog build")
	m.resolverHits = counter("resolver_hits_total", "Records whose name resolved to an image file")
	m.resolverMisses = counter("resolver_misses_total", "Records with no matching image file")
	m.storeQueryMillis = histogram("store_query_milliseconds", "Latency of record store queries in milliseconds")
	m.storeErrors = counter("store_errors_total", "Failed record store queries")

	m.assetsTotal = gauge("assets", "Number of image files in the current asset snapshot")
	m.indexRebuilds = counter("index_rebuilds_total", "Number of name index rebuilds")
	m.listErrors = counter("asset_list_errors_total", "Failed asset directory listings")

	m.preloadLoaded = counter("preload_loaded_total", "Assets whose preload completed, including failures")
	m.preloadFailed = counter("preload_failed_total", "Assets whose preload failed")
	m.preloadTotal = gauge("preload_total", "Assets scheduled in the current preload generation")
	m.preloadQueueSize = gauge("preload_queue_size", "Preload jobs waiting in the queue")
	m.preloadLatency = histogram("preload_latency_milliseconds", "Time to preload a single asset in milliseconds")
	m.preloadWorkers = gauge("preload_workers", "Number of preload workers")
	m.preloadDropped = counter("preload_dropped_total", "Preload jobs rejected by a full or closed queue")
	m.preloadGeneration = gauge("preload_generation", "Current preload generation")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "requests_total",
		Help: "Total number of HTTP requests", ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "errors_total",
		Help: "HTTP errors by endpoint and type", ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "errors", Name: "by_component_total",
		Help: "Errors by component and type", ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "memory_bytes",
		Help: "Allocated heap bytes", ConstLabels: labels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "goroutines",
		Help: "Number of goroutines", ConstLabels: labels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "gc_pause_milliseconds",
		Help: "Average GC pause in milliseconds", Buckets: m.histogramBuckets, ConstLabels: labels,
	})
}

// Enabled reports whether this manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// --- Catalog ---

// UpdateCatalogRecords sets the record count of the last query.
func UpdateCatalogRecords(n int) {
	if globalManager.enabled {
		globalManager.catalogRecords.Set(float64(n))
	}
}

// UpdateCatalogResolved sets the resolved record count of the last catalog build.
func UpdateCatalogResolved(n int) {
	if globalManager.enabled {
		globalManager.catalogResolved.Set(float64(n))
	}
}

// RecordResolverHits counts names that resolved to an image.
func RecordResolverHits(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.resolverHits.Add(float64(n))
	}
}

// RecordResolverMisses counts names with no image.
func RecordResolverMisses(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.resolverMisses.Add(float64(n))
	}
}

// RecordStoreQueryLatency observes a record store query.
func RecordStoreQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeQueryMillis.Observe(latencyMs)
	}
}

// RecordStoreError counts a failed record store query.
func RecordStoreError() {
	if globalManager.enabled {
		globalManager.storeErrors.Inc()
		globalManager.errorsByComponent.WithLabelValues("store", "query_error").Inc()
	}
}

// --- Assets ---

// UpdateAssetsTotal sets the asset count of the current snapshot.
func UpdateAssetsTotal(n int) {
	if globalManager.enabled {
		globalManager.assetsTotal.Set(float64(n))
	}
}

// RecordIndexRebuild counts a name index rebuild.
func RecordIndexRebuild() {
	if globalManager.enabled {
		globalManager.indexRebuilds.Inc()
	}
}

// RecordAssetListError counts a failed directory listing.
func RecordAssetListError() {
	if globalManager.enabled {
		globalManager.listErrors.Inc()
		globalManager.errorsByComponent.WithLabelValues("assets", "list_error").Inc()
	}
}

// --- Preload ---

// RecordPreloadDone counts a completed preload; failed ones are also counted as failures.
func RecordPreloadDone(failed bool, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.preloadLoaded.Inc()
	globalManager.preloadLatency.Observe(latencyMs)
	if failed {
		globalManager.preloadFailed.Inc()
		globalManager.errorsByComponent.WithLabelValues("preload", "load_error").Inc()
	}
}

// UpdatePreloadTotal sets the size of the current preload generation.
func UpdatePreloadTotal(total, generation int) {
	if globalManager.enabled {
		globalManager.preloadTotal.Set(float64(total))
		globalManager.preloadGeneration.Set(float64(generation))
	}
}

// UpdatePreloadQueueSize sets the number of waiting preload jobs.
func UpdatePreloadQueueSize(n int) {
	if globalManager.enabled {
		globalManager.preloadQueueSize.Set(float64(n))
	}
}

// UpdatePreloadWorkers sets the preload worker count.
func UpdatePreloadWorkers(n int) {
	if globalManager.enabled {
		globalManager.preloadWorkers.Set(float64(n))
	}
}

// RecordPreloadDropped counts a job the queue refused.
func RecordPreloadDropped(reason string) {
	if globalManager.enabled {
		globalManager.preloadDropped.Inc()
		globalManager.errorsByComponent.WithLabelValues("queue", reason).Inc()
	}
}

// --- HTTP ---

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByComponent records an error for an arbitrary component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// --- System ---

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
