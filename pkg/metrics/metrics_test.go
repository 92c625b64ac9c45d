package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestObserveLockAttempt_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLockAttempt("disk", "Lock", OutcomeSuccess)
	m.ObserveLockAttempt("disk", "Lock", OutcomeAlreadyLocked)
	m.ObserveLockAttempt("disk", "Lock", OutcomeAlreadyLocked)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "oml_storage_lock_attempts_total" {
			continue
		}
		found = true
		var total float64
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		if total != 3 {
			t.Fatalf("expected 3 total attempts recorded, got %v", total)
		}
	}
	if !found {
		t.Fatalf("oml_storage_lock_attempts_total not registered")
	}
}

func TestNilMetrics_MethodsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveLockAttempt("disk", "Lock", OutcomeSuccess)
	m.ObserveLockDuration("disk", "Lock", 0.1)
	m.SetHighestSeenID("disk", 42)
}

func TestSetHighestSeenID_SetsGaugeValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetHighestSeenID("disk", 42)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "oml_storage_metadata_highest_seen_id_numeric" {
			continue
		}
		for _, metric := range f.GetMetric() {
			if metric.GetGauge().GetValue() != 42 {
				t.Fatalf("expected gauge value 42, got %v", metric.GetGauge().GetValue())
			}
		}
	}
}
