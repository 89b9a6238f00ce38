// Package metrics holds the Prometheus collectors for FairShare.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// Mutations counts mutation operations.
	// Labels: op (add_item, set_claim, ...), outcome (ok, not_found, invalid_input, ...)
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairshare",
		Subsystem: "billing",
		Name:      "mutations_total",
		Help:      "Total mutation operations by outcome",
	}, []string{"op", "outcome"})

	// RPCDuration measures connect RPC latency.
	// Labels: procedure, code (ok or connect error code)
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fairshare",
		Subsystem: "rpc",
		Name:      "duration_seconds",
		Help:      "RPC latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})

	// BroadcastDeliveries counts snapshots handed to subscribers.
	// Labels: result (delivered, dropped)
	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairshare",
		Subsystem: "realtime",
		Name:      "deliveries_total",
		Help:      "Snapshot deliveries to subscribers",
	}, []string{"result"})

	// BroadcastFailures counts broadcasts that could not be built or published.
	BroadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairshare",
		Subsystem: "realtime",
		Name:      "broadcast_failures_total",
		Help:      "Broadcasts that failed after a committed mutation",
	})

	// Subscribers tracks live subscriber connections.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fairshare",
		Subsystem: "realtime",
		Name:      "subscribers",
		Help:      "Currently connected subscribers",
	})

	// ExtractionAttempts counts calls to the extraction service.
	// Labels: outcome (ok, retry, unavailable, unparseable)
	ExtractionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairshare",
		Subsystem: "extraction",
		Name:      "attempts_total",
		Help:      "Bill extraction attempts by outcome",
	}, []string{"outcome"})

	// ExtractionDuration measures end-to-end extraction latency including retries.
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fairshare",
		Subsystem: "extraction",
		Name:      "duration_seconds",
		Help:      "Bill extraction latency in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)
