// Package metrics exposes the Prometheus instrumentation for the Query
// Handler: a query counter broken down by result code, a resolution
// duration histogram, and a delegation-depth histogram.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QueriesTotal counts every query the handler has processed to
	// completion, labeled by the result code sent back to the client.
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recursive_dns_queries_total",
			Help: "Total DNS queries handled, labeled by result code.",
		},
		[]string{"rcode"},
	)

	// ResolutionDuration measures wall-clock time spent in the Resolver
	// Engine per query.
	ResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recursive_dns_resolution_duration_seconds",
			Help:    "Time spent resolving a query end to end.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"qtype"},
	)

	// DelegationDepth records how many NS hops a resolution took before
	// terminating, one observation per completed resolution.
	DelegationDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recursive_dns_delegation_depth",
			Help:    "Number of NS delegation hops followed before a resolution terminated.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal, ResolutionDuration, DelegationDepth)
}
