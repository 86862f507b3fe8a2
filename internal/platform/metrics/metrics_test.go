package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordTransition("patient", "success")
	m.RecordTransition("patient", "success")
	m.RecordTransition("patient", "conflict")

	got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("patient", "success"))
	if got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
}

func TestRecordConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordConflict("consent")

	got := testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("consent"))
	if got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.RecordTransition("patient", "success")
	m.RecordConflict("patient")
}
