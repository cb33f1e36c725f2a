package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/groundwave/core"
)

func TestEngineCollectorEvaluationOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}

	c.ObserveEvaluation(core.CodeSuccess, time.Microsecond)
	c.ObserveEvaluation(core.CodeDistance, time.Microsecond)
	c.ObserveEvaluation(core.CodeDistance, time.Microsecond)
	c.ObserveEvaluation(2001, time.Microsecond)

	tests := []struct {
		outcome, code string
		want          float64
	}{
		{"success", "0", 1},
		{"validation", "1005", 2},
		{"engine", "2001", 1},
	}
	for _, tc := range tests {
		if got := testutil.ToFloat64(c.Evaluations.WithLabelValues(tc.outcome, tc.code)); got != tc.want {
			t.Fatalf("lfmf_evaluations_total{%s,%s} = %v, want %v", tc.outcome, tc.code, got, tc.want)
		}
	}
	if count := histogramSampleCount(t, reg, "lfmf_evaluation_duration_seconds", nil); count != 4 {
		t.Fatalf("lfmf_evaluation_duration_seconds sample_count = %d, want 4", count)
	}
}

func TestEngineCollectorBatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}

	c.ObserveBatch(100, 3, 8, 20*time.Millisecond)
	c.ObserveBatch(5, 0, 5, time.Millisecond)

	if got := testutil.ToFloat64(c.Batches); got != 2 {
		t.Fatalf("lfmf_batches_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.BatchFailures); got != 3 {
		t.Fatalf("lfmf_batch_failed_elements_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.BatchWorkers); got != 5 {
		t.Fatalf("lfmf_batch_workers = %v, want 5", got)
	}
	if count := histogramSampleCount(t, reg, "lfmf_batch_elements", nil); count != 2 {
		t.Fatalf("lfmf_batch_elements sample_count = %d, want 2", count)
	}
}

func TestNilEngineCollectorIsSafe(t *testing.T) {
	var c *EngineCollector
	c.ObserveEvaluation(core.CodeSuccess, time.Second)
	c.ObserveBatch(1, 0, 1, time.Second)
}
