// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending"

var (
	SweepTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_ticks_total",
		Help:      "Liquidation sweep ticks by outcome (ran, skipped, error).",
	}, []string{"outcome"})

	Liquidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "liquidations_total",
		Help:      "Loans moved to defaulted by the liquidation sweep.",
	})

	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_failures_total",
		Help:      "Per-loan failures during a liquidation sweep.",
	})

	LedgerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_request_seconds",
		Help:      "Latency of ledger service calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "result"})

	ReconciliationGaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_gaps_total",
		Help:      "Ledger operations that succeeded without a matching local record.",
	}, []string{"op"})
)
