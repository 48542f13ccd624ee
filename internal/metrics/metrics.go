// Package metrics exports the Prometheus gauges/counters/histograms the
// query-time core reports. There is no equivalent in the teacher; this
// is new ambient-stack surface wired per the expansion step, grounded on
// how grafana-tempo registers its own client_golang collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryLatency is the per-shard search_initial latency, labeled by
	// shard id and outcome (ok/error/timeout).
	QueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "search",
		Subsystem: "shard",
		Name:      "query_latency_seconds",
		Help:      "Latency of a single shard's search_initial call.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"shard", "outcome"})

	// ReplicaFailures counts dropped replica responses in a fan-out.
	ReplicaFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "search",
		Subsystem: "client",
		Name:      "replica_failures_total",
		Help:      "Replica requests that errored or timed out and were dropped from the aggregate.",
	}, []string{"shard"})

	// QuorumAcks counts acknowledgements gathered per live-index write.
	QuorumAcks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "search",
		Subsystem: "liveindex",
		Name:      "quorum_acks",
		Help:      "Number of Ready-peer acknowledgements gathered per IndexWebpages call.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 8, 16},
	}, []string{"shard", "outcome"})

	// IngestRate counts pages ingested by a live-index node.
	IngestRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "search",
		Subsystem: "liveindex",
		Name:      "pages_ingested_total",
		Help:      "Pages inserted into a live-index shard's local index.",
	}, []string{"shard", "state"})

	// InFlightSearches tracks the global concurrency limit's occupancy.
	InFlightSearches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "search",
		Subsystem: "api",
		Name:      "in_flight_searches",
		Help:      "Number of search calls currently holding the global concurrency semaphore.",
	})
)
