// Package monitoring exposes the prometheus instrumentation shared by the
// pipeline components.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryErrors       *prometheus.CounterVec
	DegradedTotal     *prometheus.CounterVec
	NoMatchTotal      *prometheus.CounterVec
	QueryLatency      *prometheus.HistogramVec
	DocumentsPerQuery *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Pipeline invocations by domain profile.",
		}, []string{"profile"}),
		QueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "query_errors_total",
			Help:      "Pipeline invocations that ended with an error response.",
		}, []string{"profile"}),
		DegradedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "degraded_responses_total",
			Help:      "Responses served from a fallback tier (mock documents or template generation).",
		}, []string{"profile", "tier"}),
		NoMatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "no_match_responses_total",
			Help:      "Queries for which a healthy store matched no documents.",
		}, []string{"profile"}),
		QueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "query_duration_seconds",
			Help:      "End-to-end pipeline latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"profile"}),
		DocumentsPerQuery: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "linksaudi",
			Subsystem: "rag",
			Name:      "documents_per_query",
			Help:      "Documents attached to each response.",
			Buckets:   prometheus.LinearBuckets(0, 1, 12),
		}, []string{"profile"}),
	}
}
