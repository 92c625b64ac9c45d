// Package metrics exposes Prometheus counters and gauges for lock
// contention, operation outcomes, and the highest-seen-id tracker.
// Grounded on the teacher's pkg/metadata/lock/metrics.go (namespaced
// CounterVec/GaugeVec construction, nil-receiver-safe methods), simplified
// to direct promauto registration instead of the teacher's
// Describe/Collect indirection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelBackend = "backend"
	LabelOp      = "op"
	LabelOutcome = "outcome"

	OutcomeSuccess       = "success"
	OutcomeAlreadyLocked = "already_locked"
	OutcomeAlreadyExists = "already_exists"
	OutcomeError         = "error"
)

// Metrics holds every metric this library emits. A nil *Metrics is safe to
// call methods on (all become no-ops), so callers that don't wire metrics
// don't need to guard every call site.
type Metrics struct {
	lockAttempts  *prometheus.CounterVec
	lockDuration  *prometheus.HistogramVec
	highestSeenID *prometheus.GaugeVec
}

// New constructs and registers the metric set against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		lockAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oml_storage",
				Subsystem: "lock",
				Name:      "attempts_total",
				Help:      "Total number of Lock/LockNew attempts by backend and outcome.",
			},
			[]string{LabelBackend, LabelOp, LabelOutcome},
		),
		lockDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "oml_storage",
				Subsystem: "lock",
				Name:      "duration_seconds",
				Help:      "Time spent inside a single Lock/LockNew call.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelBackend, LabelOp},
		),
		highestSeenID: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "oml_storage",
				Subsystem: "metadata",
				Name:      "highest_seen_id_numeric",
				Help:      "Numeric form of the highest id observed, for ID variants that support it.",
			},
			[]string{LabelBackend},
		),
	}
}

// ObserveLockAttempt records a Lock or LockNew call's outcome.
func (m *Metrics) ObserveLockAttempt(backend, op, outcome string) {
	if m == nil {
		return
	}
	m.lockAttempts.WithLabelValues(backend, op, outcome).Inc()
}

// ObserveLockDuration records how long a Lock or LockNew call took.
func (m *Metrics) ObserveLockDuration(backend, op string, seconds float64) {
	if m == nil {
		return
	}
	m.lockDuration.WithLabelValues(backend, op).Observe(seconds)
}

// SetHighestSeenID publishes the numeric form of a backend's current
// highest-seen-id. Callers with a non-numeric ID variant should skip this.
func (m *Metrics) SetHighestSeenID(backend string, value float64) {
	if m == nil {
		return
	}
	m.highestSeenID.WithLabelValues(backend).Set(value)
}
