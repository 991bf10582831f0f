// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AnalysesTotal counts completed analyses by mode and outcome.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesift_analyses_total",
		Help: "Completed analysis requests by mode and outcome.",
	}, []string{"mode", "outcome"})

	// FallbackAttemptsTotal counts acquisition attempts by source and result.
	FallbackAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesift_fallback_attempts_total",
		Help: "Content acquisition attempts by source and result.",
	}, []string{"source", "result"})

	// DedupHitsTotal counts requests served from an existing canonical record.
	DedupHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagesift_dedup_hits_total",
		Help: "Analyses short-circuited by content deduplication.",
	})

	// LLMFailuresTotal counts language-model calls that fell back.
	LLMFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesift_llm_failures_total",
		Help: "Language-model extractor failures by extractor.",
	}, []string{"extractor"})

	// AnalysisDuration observes end-to-end pipeline latency.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagesift_analysis_duration_seconds",
		Help:    "End-to-end analysis duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"mode"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
