package service

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	syncpkg "github.com/bidworks/collab-api/internal/sync"
)

// PendingFunc reports the current pending change count for the gauge.
type PendingFunc func(context.Context) int

// MetricsService encapsulates Prometheus instrumentation for the API and the
// reconciliation loop.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reconPasses     prometheus.Counter
	reconFailures   prometheus.Counter
	reconDuration   prometheus.Histogram
	reconSynced     prometheus.Counter
	commentOps      *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the collectors. pending feeds the
// pending_changes gauge and may be nil.
func NewMetricsService(pending PendingFunc) *MetricsService {
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

	reconPasses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_passes_total",
		Help: "Total reconciliation passes executed",
	})

	reconFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_failures_total",
		Help: "Total records that failed to sync across all passes",
	})

	reconDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_duration_seconds",
		Help:    "Duration of reconciliation passes",
		Buckets: prometheus.DefBuckets,
	})

	reconSynced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_records_synced_total",
		Help: "Total drafts and queue items confirmed by the remote authority",
	})

	commentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_operations_total",
		Help: "Total comment tree operations",
	}, []string{"operation"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_cache_hits_total",
		Help: "Total collaboration snapshot cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_cache_misses_total",
		Help: "Total collaboration snapshot cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reconPasses, reconFailures,
		reconDuration, reconSynced, commentOps, cacheHits, cacheMisses, goroutines)

	if pending != nil {
		pendingGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pending_changes",
			Help: "Unsynced drafts plus queued mutation intents",
		}, func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return float64(pending(ctx))
		})
		registry.MustRegister(pendingGauge)
	}

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reconPasses:     reconPasses,
		reconFailures:   reconFailures,
		reconDuration:   reconDuration,
		reconSynced:     reconSynced,
		commentOps:      commentOps,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveReconciliation records the outcome of one reconciliation pass.
func (m *MetricsService) ObserveReconciliation(duration time.Duration, stats syncpkg.DrainStats) {
	if m == nil {
		return
	}
	m.reconPasses.Inc()
	m.reconDuration.Observe(duration.Seconds())
	m.reconSynced.Add(float64(stats.DraftsSynced + stats.ItemsCompleted))
	m.reconFailures.Add(float64(stats.Failures()))
}

// RecordCommentOperation counts a comment tree mutation.
func (m *MetricsService) RecordCommentOperation(operation string) {
	if m == nil {
		return
	}
	m.commentOps.WithLabelValues(operation).Inc()
}

// RecordCacheLookup counts a snapshot cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
