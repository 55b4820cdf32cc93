// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal           *prometheus.CounterVec
	scrapeDurationSeconds  *prometheus.HistogramVec
	cacheReadsTotal        *prometheus.CounterVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDurationSec *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airport_scrapes_total",
				Help: "Total scrapes, labeled by data domain, terminal and outcome.",
			},
			[]string{"domain", "terminal", "outcome"},
		)
		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airport_scrape_duration_seconds",
				Help:    "Scrape latency, labeled by data domain.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"domain"},
		)
		cacheReadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airport_cache_reads_total",
				Help: "Cache reads, labeled by data domain and result (hit/miss/stale).",
			},
			[]string{"domain", "result"},
		)
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airport_http_requests_total",
				Help: "HTTP requests served, labeled by method, route and status.",
			},
			[]string{"method", "route", "status"},
		)
		httpRequestDurationSec = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airport_http_request_duration_seconds",
				Help:    "HTTP request latency, labeled by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveScrape records one scrape attempt's outcome and duration.
func ObserveScrape(domain, terminal, outcome string, d time.Duration) {
	if scrapesTotal == nil {
		return
	}
	scrapesTotal.WithLabelValues(domain, terminal, outcome).Inc()
	scrapeDurationSeconds.WithLabelValues(domain).Observe(d.Seconds())
}

// ObserveCacheRead records a cache read result ("hit", "miss" or "stale").
func ObserveCacheRead(domain, result string) {
	if cacheReadsTotal == nil {
		return
	}
	cacheReadsTotal.WithLabelValues(domain, result).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, route, statusText(status)).Inc()
	httpRequestDurationSec.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusText(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
