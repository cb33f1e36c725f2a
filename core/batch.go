package core

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/model"
)

const tracerName = "github.com/signalsfoundry/groundwave/core"

// BatchRequest describes a one-dimensional sweep: Baseline with Dimension
// overridden by each of Values in turn.
type BatchRequest struct {
	Baseline  model.InputParameters `json:"baseline"`
	Dimension model.Dimension       `json:"dimension"`
	Values    []float64             `json:"values"`
	Field     model.ResultField     `json:"field"`
	// Workers bounds the pool; <= 0 uses the evaluator default.
	Workers int `json:"workers,omitempty"`
}

// ElementFailure records why one sweep element produced NaN.
type ElementFailure struct {
	Index int
	Value float64
	Err   error
}

// BatchResult is index-aligned with BatchRequest.Values. Failed elements hold
// NaN and are listed in Failures in index order.
type BatchResult struct {
	Values   model.Values
	Failures []ElementFailure
	Workers  int
}

// BatchEvaluator fans a sweep out across a bounded worker pool.
type BatchEvaluator struct {
	client         *Client
	log            logging.Logger
	defaultWorkers int
}

// BatchOption customises BatchEvaluator construction.
type BatchOption func(*BatchEvaluator)

// WithDefaultWorkers sets the pool size used when a request leaves Workers
// unset. Values <= 0 keep the host parallelism default.
func WithDefaultWorkers(n int) BatchOption {
	return func(b *BatchEvaluator) {
		if n > 0 {
			b.defaultWorkers = n
		}
	}
}

// NewBatchEvaluator builds an evaluator over client. log may be nil.
func NewBatchEvaluator(client *Client, log logging.Logger, opts ...BatchOption) (*BatchEvaluator, error) {
	if client == nil {
		return nil, fmt.Errorf("lfmf client is nil")
	}
	log = logging.OrNoop(log)
	b := &BatchEvaluator{
		client:         client,
		log:            log,
		defaultWorkers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Evaluate runs every element of req and returns once all of them have been
// attempted. Element failures become NaN plus a logged diagnostic and never
// affect other elements; the output is the same for any worker count.
//
// ctx supplies the logger and trace context only. Cancellation is not
// observed: a batch always runs to completion.
//
// If the engine panics, no further elements are started and the panic is
// re-raised on the caller's goroutine as *EngineFault.
func (b *BatchEvaluator) Evaluate(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if !req.Dimension.Valid() {
		return BatchResult{}, fmt.Errorf("%w: unknown dimension %d", ErrInvalidBatch, int(req.Dimension))
	}
	if !req.Field.Valid() {
		return BatchResult{}, fmt.Errorf("%w: unknown result field %d", ErrInvalidBatch, int(req.Field))
	}

	n := len(req.Values)
	workers := b.workerCount(req.Workers, n)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "lfmf.BatchEvaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("lfmf.dimension", req.Dimension.String()),
		attribute.String("lfmf.field", req.Field.String()),
		attribute.Int("lfmf.elements", n),
		attribute.Int("lfmf.workers", workers),
	)

	start := time.Now()
	out := make(model.Values, n)
	errs := make([]error, n)
	if fault := b.run(ctx, req, workers, out, errs); fault != nil {
		span.RecordError(fault)
		b.log.Error(ctx, "lfmf engine fault; aborting batch", logging.Any("fault", fault.Value))
		panic(fault)
	}

	var failures []ElementFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, ElementFailure{Index: i, Value: req.Values[i], Err: err})
		}
	}

	elapsed := time.Since(start)
	b.client.metrics.ObserveBatch(n, len(failures), workers, elapsed)
	span.SetAttributes(attribute.Int("lfmf.failed", len(failures)))
	b.log.Debug(ctx, "batch evaluated",
		logging.String("dimension", req.Dimension.String()),
		logging.Int("elements", n),
		logging.Int("failed", len(failures)),
		logging.Int("workers", workers),
		logging.Duration("elapsed", elapsed),
	)

	return BatchResult{Values: out, Failures: failures, Workers: workers}, nil
}

func (b *BatchEvaluator) workerCount(requested, n int) int {
	workers := requested
	if workers <= 0 {
		workers = b.defaultWorkers
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// run evaluates every index of req.Values on a fixed pool. Each worker
// writes only the slots of the indices it receives, so out and errs need no
// locking.
func (b *BatchEvaluator) run(ctx context.Context, req BatchRequest, workers int, out model.Values, errs []error) *EngineFault {
	jobs := make(chan int, workers*2)
	stop := make(chan struct{})

	var (
		wg        sync.WaitGroup
		faultOnce sync.Once
		fault     *EngineFault
	)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-stop:
					continue
				default:
				}
				if f := b.evaluateElement(ctx, req, i, out, errs); f != nil {
					faultOnce.Do(func() {
						fault = f
						close(stop)
					})
				}
			}
		}()
	}

feed:
	for i := range req.Values {
		select {
		case <-stop:
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return fault
}

func (b *BatchEvaluator) evaluateElement(ctx context.Context, req BatchRequest, i int, out model.Values, errs []error) (fault *EngineFault) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*EngineFault); ok {
				fault = f
				return
			}
			fault = &EngineFault{Value: r, Stack: debug.Stack()}
		}
	}()

	p := req.Baseline.With(req.Dimension, req.Values[i])
	res, err := b.client.Evaluate(ctx, p)
	var v float64
	if err == nil {
		v, err = res.Value(req.Field)
	}
	if err != nil {
		out[i] = math.NaN()
		errs[i] = err
		b.log.Warn(ctx, "sweep element failed",
			logging.Int("index", i),
			logging.Float64(req.Dimension.String(), req.Values[i]),
			logging.Err(err),
		)
		return nil
	}
	out[i] = v
	return nil
}
