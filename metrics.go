package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors of the api on a dedicated
// registry, exposed through the ops metrics endpoint.
type Metrics struct {
	Registry             *prometheus.Registry
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      prometheus.Histogram
	CatalogSearchesTotal *prometheus.CounterVec
	MutationsTotal       *prometheus.CounterVec
	LoadFailuresTotal    prometheus.Counter
}

// NewMetrics constructs and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_requests_total",
			Help: "Total HTTP requests served, by response code.",
		},
		[]string{"code"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_request_duration_seconds",
			Help:    "HTTP request processing latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	catalogSearches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_catalog_searches_total",
			Help: "Total catalog searches, by outcome.",
		},
		[]string{"outcome"},
	)
	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_collection_mutations_total",
			Help: "Total committed collection mutations, by operation.",
		},
		[]string{"op"},
	)
	loadFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_collection_load_failures_total",
			Help: "Total collection loads answered from retained state.",
		},
	)

	registry.MustRegister(requests, requestDuration, catalogSearches, mutations, loadFailures)

	return &Metrics{
		Registry:             registry,
		RequestsTotal:        requests,
		RequestDuration:      requestDuration,
		CatalogSearchesTotal: catalogSearches,
		MutationsTotal:       mutations,
		LoadFailuresTotal:    loadFailures,
	}
}
