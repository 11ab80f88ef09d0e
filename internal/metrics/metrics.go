// Package metrics provides Prometheus metrics for the comic tracker.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comic_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Valuation Metrics
	ValuationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_valuation_requests_total",
			Help: "Valuation requests by final source and outcome",
		},
		[]string{"source", "result"}, // result: "success", "failed"
	)

	ValuationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comic_valuation_duration_seconds",
			Help:    "Time taken to resolve a valuation across sources",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_source_errors_total",
			Help: "Pricing source failures by source and kind",
		},
		[]string{"source", "kind"}, // kind: "not_found", "unconfigured", "unavailable"
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_cache_hits_total",
			Help: "Cache hits by tier",
		},
		[]string{"tier"}, // "scan", "query"
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_cache_misses_total",
			Help: "Cache misses by tier",
		},
		[]string{"tier"},
	)

	// Valuation Worker Metrics
	ValueUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comic_value_updates_total",
			Help: "Total number of comic values refreshed",
		},
	)

	ValueUpdatesToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_value_updates_today",
			Help: "Number of comic values refreshed today (resets at midnight)",
		},
	)

	RefreshQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_refresh_queue_size",
			Help: "Number of comics waiting in the priority refresh queue",
		},
	)

	RefreshBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comic_refresh_batch_duration_seconds",
			Help:    "Time taken to process a value refresh batch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Bulk Sync Metrics
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_sync_items_total",
			Help: "Remote collection sync results by operation",
		},
		[]string{"op"}, // "imported", "updated", "skipped"
	)

	SyncPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comic_sync_pages_total",
			Help: "Remote collection pages fetched",
		},
	)

	// Portfolio Metrics
	PortfolioComicsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_portfolio_comics_total",
			Help: "Total number of comics in the collection",
		},
	)

	PortfolioValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_portfolio_value_usd",
			Help: "Total estimated value of the collection in USD",
		},
	)

	PortfolioGradedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_portfolio_graded_total",
			Help: "Number of slabbed comics in the collection",
		},
	)

	PortfolioKeyIssuesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comic_portfolio_key_issues_total",
			Help: "Number of key issues in the collection",
		},
	)
)
