// Package metrics exposes Prometheus collectors for the catalog builder.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal   *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	fetchRetriesTotal    prometheus.Counter
	fetchExhaustedTotal  prometheus.Counter
	catalogActiveWorkers prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_requests_total",
				Help: "Total number of listing fetch attempts, labeled by host and result.",
			},
			[]string{"host", "result"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_fetch_duration_seconds",
				Help:    "Histogram of listing fetch latencies, labeled by host.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"host"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_fetch_retries_total",
				Help: "Total number of fetch retries after a failed attempt.",
			},
		)

		fetchExhaustedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_fetch_exhausted_total",
				Help: "Total number of URLs abandoned after every retry failed.",
			},
		)

		catalogActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_active_workers",
				Help: "Number of workers currently crawling a year directory.",
			},
		)
	})
}

// HostLabel sanitizes a URL into a lowercase hostname label.
// It returns "unknown" if the URL is invalid.
func HostLabel(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt and its latency.
func ObserveFetch(rawURL, result string, duration time.Duration) {
	host := HostLabel(rawURL)
	fetchRequestsTotal.WithLabelValues(host, result).Inc()
	fetchDurationSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveRetry increments the retry counter.
func ObserveRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveExhausted increments the abandoned-URL counter.
func ObserveExhausted() {
	fetchExhaustedTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	catalogActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	catalogActiveWorkers.Dec()
}
