// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Crawl metrics
	PagesFetched       prometheus.Counter
	PageFetchErrors    prometheus.Counter
	AddressesExtracted prometheus.Counter
	AddressesNew       prometheus.Counter
	PageFetchLatency   prometheus.Histogram

	// Harvest metrics
	APICalls          *prometheus.CounterVec
	APICallLatency    *prometheus.HistogramVec
	RecordsHarvested  prometheus.Counter
	HarvestFailures   *prometheus.CounterVec

	// Rate limiting metrics
	BackoffEvents prometheus.Counter
	CurrentDelay  prometheus.Gauge

	// Checkpoint metrics
	CheckpointWrites prometheus.Counter
	CheckpointErrors prometheus.Counter

	// Health metrics
	LastSuccessfulPage    prometheus.Gauge
	LastSuccessfulHarvest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solscan_harvester"
	}

	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "pages_fetched_total",
			Help:      "Total number of listing pages fetched and parsed",
		}),
		PageFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "page_fetch_errors_total",
			Help:      "Total number of listing page fetches that failed",
		}),
		AddressesExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "addresses_extracted_total",
			Help:      "Total number of valid addresses extracted from pages",
		}),
		AddressesNew: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "addresses_new_total",
			Help:      "Total number of addresses not seen before",
		}),
		PageFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "page_fetch_latency_seconds",
			Help:      "Listing page fetch and render latency",
			Buckets:   prometheus.DefBuckets,
		}),
		APICalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "api_calls_total",
			Help:      "Total structured API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		APICallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "api_call_latency_seconds",
			Help:      "Structured API call latency by endpoint",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RecordsHarvested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "records_harvested_total",
			Help:      "Total account records fully assembled and written",
		}),
		HarvestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "failures_total",
			Help:      "Total addresses dropped after retry budget exhaustion, by stage",
		}, []string{"stage"}),
		BackoffEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "backoff_events_total",
			Help:      "Total transient failures that grew the request delay",
		}),
		CurrentDelay: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "current_delay_seconds",
			Help:      "Current inter-request delay",
		}),
		CheckpointWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "writes_total",
			Help:      "Total successful checkpoint snapshot writes",
		}),
		CheckpointErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "errors_total",
			Help:      "Total failed checkpoint snapshot writes",
		}),
		LastSuccessfulPage: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_page_timestamp_seconds",
			Help:      "Unix timestamp of the last successfully processed page",
		}),
		LastSuccessfulHarvest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_harvest_timestamp_seconds",
			Help:      "Unix timestamp of the last successfully harvested record",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
