// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	LookupsTotal            *prometheus.CounterVec
	LookupLatency           *prometheus.HistogramVec
	LookupResultsCount      prometheus.Histogram
	ResolutionWarningsTotal prometheus.Counter
	IndexedTerms            prometheus.Gauge
	IndexedFields           prometheus.Gauge
	XrefEntries             prometheus.Gauge
	SimilarityRequestsTotal *prometheus.CounterVec
	SimilarityLatency       prometheus.Histogram
	CandidatesScored        prometheus.Histogram
	CacheHitsTotal          prometheus.Counter
	CacheMissesTotal        prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pheno_lookups_total",
				Help: "Total term lookups by match mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		LookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pheno_lookup_latency_seconds",
				Help:    "Full-text lookup latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"mode"},
		),
		LookupResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pheno_lookup_results_count",
				Help:    "Number of term identifiers returned per lookup.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		ResolutionWarningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pheno_resolution_warnings_total",
				Help: "Total non-fatal warnings accumulated during query resolution.",
			},
		),
		IndexedTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pheno_indexed_terms",
				Help: "Number of ontology terms in the loaded snapshot.",
			},
		),
		IndexedFields: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pheno_indexed_fields",
				Help: "Number of searchable fields in the full-text index.",
			},
		),
		XrefEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pheno_xref_entries",
				Help: "Number of gene cross-reference pairs loaded.",
			},
		),
		SimilarityRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pheno_similarity_requests_total",
				Help: "Total similarity requests by status (ok, error).",
			},
			[]string{"status"},
		),
		SimilarityLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pheno_similarity_latency_seconds",
				Help:    "End-to-end similarity ranking latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		CandidatesScored: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pheno_similarity_candidates_scored",
				Help:    "Number of candidates scored per similarity request.",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pheno_cache_hits_total",
				Help: "Total similarity cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pheno_cache_misses_total",
				Help: "Total similarity cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.LookupsTotal,
		m.LookupLatency,
		m.LookupResultsCount,
		m.ResolutionWarningsTotal,
		m.IndexedTerms,
		m.IndexedFields,
		m.XrefEntries,
		m.SimilarityRequestsTotal,
		m.SimilarityLatency,
		m.CandidatesScored,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
