// Package metrics exposes Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SearchCalls counts search collaborator calls by outcome (ok, rate_limited, error, retry).
	SearchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candidstance_search_calls_total",
		Help: "Web search calls by outcome",
	}, []string{"outcome"})

	// CacheLookups counts candidate cache lookups by result (hit, stale, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candidstance_cache_lookups_total",
		Help: "Candidate cache lookups by result",
	}, []string{"result"})

	// Analyses counts finished analyses by outcome.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candidstance_analyses_total",
		Help: "Candidate analyses by outcome",
	}, []string{"outcome"})

	// SourcesSelected observes how many real sources each verified stance received.
	SourcesSelected = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "candidstance_sources_selected",
		Help:    "Sources attached per verified stance",
		Buckets: []float64{0, 1, 2, 3, 5},
	})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// LinkChecks counts link liveness probes by result (alive, dead, disallowed, unknown).
var LinkChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "candidstance_link_checks_total",
	Help: "Source link liveness probes by result",
}, []string{"result"})
