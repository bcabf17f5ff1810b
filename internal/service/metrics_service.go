package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the ingest,
// reconcile and validate pipelines, plus lightweight snapshots for the status
// endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	validationRuns  prometheus.Counter
	validationTime  prometheus.Observer
	mergeTotal      prometheus.Counter
	conflictsTotal  prometheus.Counter
	orphansTotal    prometheus.Counter
	terminations    *prometheus.CounterVec
	schemaLoads     *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	validationRunCount   uint64
	mergeCount           uint64
	conflictCount        uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "result_cache_hit_ratio",
		Help: "Ratio of result cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_hits_total",
		Help: "Total result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_misses_total",
		Help: "Total result cache misses",
	})

	validationRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "validation_runs_total",
		Help: "Total subject validation runs executed",
	})

	validationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "validation_run_duration_seconds",
		Help:    "Duration of full subject validation runs",
		Buckets: prometheus.DefBuckets,
	})

	mergeTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_merges_total",
		Help: "Total merged records produced by reconciliation",
	})

	conflictsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_conflicts_total",
		Help: "Total cross-source field conflicts resolved",
	})

	orphansTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_orphans_total",
		Help: "Total survey-only subjects flagged during reconciliation",
	})

	terminations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_terminations_total",
		Help: "Tasks cut short by a termination rule, by strategy",
	}, []string{"strategy"})

	schemaLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schema_loads_total",
		Help: "Schema document loads by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses,
		validationRuns, validationTime, mergeTotal, conflictsTotal, orphansTotal, terminations, schemaLoads, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		validationRuns:  validationRuns,
		validationTime:  validationTime,
		mergeTotal:      mergeTotal,
		conflictsTotal:  conflictsTotal,
		orphansTotal:    orphansTotal,
		terminations:    terminations,
		schemaLoads:     schemaLoads,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup records a result-cache hit or miss and updates the ratio.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveValidationRun records one full subject validation run.
func (m *MetricsService) ObserveValidationRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.validationRuns.Inc()
	m.validationTime.Observe(duration.Seconds())
	atomic.AddUint64(&m.validationRunCount, 1)
}

// ObserveReconcile records the outcome of one reconciliation pass.
func (m *MetricsService) ObserveReconcile(merged, conflicts, orphans int) {
	if m == nil {
		return
	}
	m.mergeTotal.Add(float64(merged))
	m.conflictsTotal.Add(float64(conflicts))
	m.orphansTotal.Add(float64(orphans))
	atomic.AddUint64(&m.mergeCount, uint64(merged))
	atomic.AddUint64(&m.conflictCount, uint64(conflicts))
}

// RecordTermination counts one task cut short by a termination rule.
func (m *MetricsService) RecordTermination(strategy string) {
	if m == nil {
		return
	}
	m.terminations.WithLabelValues(strategy).Inc()
}

// RecordSchemaLoad counts a schema document load by outcome label.
func (m *MetricsService) RecordSchemaLoad(outcome string) {
	if m == nil {
		return
	}
	m.schemaLoads.WithLabelValues(outcome).Inc()
}

// Snapshot returns aggregated metrics for the status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ValidationRuns:           atomic.LoadUint64(&m.validationRunCount),
		ReconcileMerges:          atomic.LoadUint64(&m.mergeCount),
		ConflictsResolved:        atomic.LoadUint64(&m.conflictCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
