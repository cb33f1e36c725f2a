package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/groundwave/core"
)

// EngineCollector exposes evaluation and sweep metrics. It satisfies
// core.MetricsRecorder.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Batches            prometheus.Counter
	BatchDuration      prometheus.Histogram
	BatchElements      prometheus.Histogram
	BatchFailures      prometheus.Counter
	BatchWorkers       prometheus.Gauge
}

var _ core.MetricsRecorder = (*EngineCollector)(nil)

// NewEngineCollector registers engine metrics against the provided registerer.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := gathererFor(reg)

	evaluations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lfmf_evaluations_total",
		Help: "Single-point LFMF evaluations, labeled by outcome and return code.",
	}, []string{"outcome", "code"}), "lfmf_evaluations_total")
	if err != nil {
		return nil, err
	}

	evalDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lfmf_evaluation_duration_seconds",
		Help:    "Duration of single-point evaluations including validation.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}), "lfmf_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	batches, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lfmf_batches_total",
		Help: "Completed sweep batches.",
	}), "lfmf_batches_total")
	if err != nil {
		return nil, err
	}

	batchDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lfmf_batch_duration_seconds",
		Help:    "Wall-clock duration of sweep batches.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}), "lfmf_batch_duration_seconds")
	if err != nil {
		return nil, err
	}

	batchElements, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lfmf_batch_elements",
		Help:    "Number of elements per sweep batch.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}), "lfmf_batch_elements")
	if err != nil {
		return nil, err
	}

	batchFailures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lfmf_batch_failed_elements_total",
		Help: "Sweep elements that produced NaN.",
	}), "lfmf_batch_failed_elements_total")
	if err != nil {
		return nil, err
	}

	batchWorkers, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lfmf_batch_workers",
		Help: "Worker count used by the most recent sweep batch.",
	}), "lfmf_batch_workers")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationDuration: evalDuration,
		Batches:            batches,
		BatchDuration:      batchDuration,
		BatchElements:      batchElements,
		BatchFailures:      batchFailures,
		BatchWorkers:       batchWorkers,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// Handler exposes a /metrics handler over the collector's gatherer.
func (c *EngineCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveEvaluation records one single-point evaluation and its return code.
func (c *EngineCollector) ObserveEvaluation(code core.ErrorCode, d time.Duration) {
	if c == nil {
		return
	}
	if c.Evaluations != nil {
		c.Evaluations.WithLabelValues(outcome(code), strconv.Itoa(int(code))).Inc()
	}
	if c.EvaluationDuration != nil {
		c.EvaluationDuration.Observe(d.Seconds())
	}
}

// ObserveBatch records one completed sweep.
func (c *EngineCollector) ObserveBatch(elements, failed, workers int, d time.Duration) {
	if c == nil {
		return
	}
	if c.Batches != nil {
		c.Batches.Inc()
	}
	if c.BatchDuration != nil {
		c.BatchDuration.Observe(d.Seconds())
	}
	if c.BatchElements != nil {
		c.BatchElements.Observe(float64(elements))
	}
	if c.BatchFailures != nil && failed > 0 {
		c.BatchFailures.Add(float64(failed))
	}
	if c.BatchWorkers != nil {
		c.BatchWorkers.Set(float64(workers))
	}
}

func outcome(code core.ErrorCode) string {
	switch {
	case code == core.CodeSuccess:
		return "success"
	case code.Kind() == core.KindValidation:
		return "validation"
	default:
		return "engine"
	}
}



