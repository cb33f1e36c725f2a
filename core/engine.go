package core

import (
	"time"

	"github.com/signalsfoundry/groundwave/model"
)

// Engine is the LFMF solver boundary. Implementations must be pure and safe
// for concurrent use without external locking; BatchEvaluator calls Evaluate
// from many goroutines at once. Failures are returned as *Error, already
// mapped from the engine's status code.
type Engine interface {
	Evaluate(p model.InputParameters) (model.Result, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(p model.InputParameters) (model.Result, error)

// Evaluate calls f(p).
func (f EngineFunc) Evaluate(p model.InputParameters) (model.Result, error) {
	return f(p)
}

// MetricsRecorder receives evaluation and batch measurements. The
// observability package provides a Prometheus implementation.
type MetricsRecorder interface {
	// ObserveEvaluation records one gated engine call. code is CodeSuccess on
	// success.
	ObserveEvaluation(code ErrorCode, d time.Duration)
	// ObserveBatch records a completed batch.
	ObserveBatch(elements, failed, workers int, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(ErrorCode, time.Duration)    {}
func (noopMetrics) ObserveBatch(int, int, int, time.Duration) {}
