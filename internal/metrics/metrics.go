// Package metrics registers the Prometheus instruments for the HTTP API,
// the upstream client and the report export pipeline.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "contas_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	snapshotCacheHits   prometheus.Counter
	snapshotCacheMisses prometheus.Counter
	snapshotFallbacks   prometheus.Counter

	reportExportsTotal *prometheus.CounterVec
	sheetsSyncTotal    *prometheus.CounterVec
	sheetsSyncLatency  prometheus.Histogram
)

// Init registers all instruments. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		upstreamRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_requests_total",
				Help: "Total upstream API requests by result",
			},
			[]string{"result"},
		)
		upstreamLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_request_duration_seconds",
				Help:    "Upstream API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		snapshotCacheHits = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_cache_hits_total",
				Help: "Snapshot reads served from the in-process cache",
			},
		)
		snapshotCacheMisses = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_cache_misses_total",
				Help: "Snapshot reads that went to the upstream API",
			},
		)
		snapshotFallbacks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_fallbacks_total",
				Help: "Snapshot reads served from SQLite because upstream failed",
			},
		)

		reportExportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_exports_total",
				Help: "Rendered report exports by format and result",
			},
			[]string{"format", "result"},
		)
		sheetsSyncTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sheets_sync_total",
				Help: "Report pushes to Google Sheets by result",
			},
			[]string{"result"},
		)
		sheetsSyncLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sheets_sync_duration_seconds",
				Help:    "Google Sheets append latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			upstreamRequests,
			upstreamLatency,
			snapshotCacheHits,
			snapshotCacheMisses,
			snapshotFallbacks,
			reportExportsTotal,
			sheetsSyncTotal,
			sheetsSyncLatency,
		)
	})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveUpstreamRequest records one call to the república API.
func ObserveUpstreamRequest(result string, duration time.Duration) {
	if upstreamRequests == nil {
		return
	}
	upstreamRequests.WithLabelValues(result).Inc()
	upstreamLatency.WithLabelValues(result).Observe(duration.Seconds())
}

func IncSnapshotCacheHit() {
	if snapshotCacheHits != nil {
		snapshotCacheHits.Inc()
	}
}

func IncSnapshotCacheMiss() {
	if snapshotCacheMisses != nil {
		snapshotCacheMisses.Inc()
	}
}

func IncSnapshotFallback() {
	if snapshotFallbacks != nil {
		snapshotFallbacks.Inc()
	}
}

// IncReportExport records a rendered export.
func IncReportExport(format, result string) {
	if reportExportsTotal != nil {
		reportExportsTotal.WithLabelValues(format, result).Inc()
	}
}

// ObserveSheetsSync records one append attempt against Google Sheets.
func ObserveSheetsSync(result string, duration time.Duration) {
	if sheetsSyncTotal == nil {
		return
	}
	sheetsSyncTotal.WithLabelValues(result).Inc()
	sheetsSyncLatency.Observe(duration.Seconds())
}
