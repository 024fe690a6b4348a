// Package observability holds the Prometheus metrics for the ledger.
// Metrics are registered on the default registry and exposed on /metrics
// when the HTTP surface runs with metrics enabled.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for MutationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ─── Mutation Metrics ───────────────────────────────────────────────────────

// MutationsTotal counts mutation service calls by operation and outcome.
var MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "akywe",
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Total mutation calls by operation and outcome (ok, rejected, failed).",
}, []string{"operation", "outcome"})

// ─── Store Metrics ──────────────────────────────────────────────────────────

// Records tracks the number of records per collection.
var Records = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "akywe",
	Subsystem: "store",
	Name:      "records",
	Help:      "Current number of records per collection.",
}, []string{"collection"})

// PersistDuration tracks how long a snapshot write takes.
var PersistDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "akywe",
	Subsystem: "store",
	Name:      "persist_seconds",
	Help:      "Time spent writing a snapshot to the persistent medium.",
	Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
})

// PersistFailures counts snapshot writes that failed.
var PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "akywe",
	Subsystem: "store",
	Name:      "persist_failures_total",
	Help:      "Total snapshot writes that failed.",
})

// LoadIssues counts collections that loaded empty because of bad data.
var LoadIssues = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "akywe",
	Subsystem: "store",
	Name:      "load_issues_total",
	Help:      "Total collections replaced by an empty collection at load.",
}, []string{"collection"})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// OutstandingTotal tracks the portfolio-wide outstanding balance.
var OutstandingTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "akywe",
	Subsystem: "ledger",
	Name:      "outstanding_total",
	Help:      "Sum of outstanding balances across all customers, in currency units.",
})

// ─── Notice Metrics ─────────────────────────────────────────────────────────

// NoticesActive tracks notices currently on display.
var NoticesActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "akywe",
	Subsystem: "notify",
	Name:      "active",
	Help:      "Number of notices currently queued for display.",
})

// ObservePersist records a snapshot write.
func ObservePersist(start time.Time, err error) {
	PersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		PersistFailures.Inc()
	}
}

// RecordMutation increments MutationsTotal.
func RecordMutation(operation, outcome string) {
	MutationsTotal.WithLabelValues(operation, outcome).Inc()
}
