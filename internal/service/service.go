// Package service exposes single-point evaluation and parameter sweeps to
// the REST and gRPC transports, and records sweep runs when a store is
// configured.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/store"
	"github.com/signalsfoundry/groundwave/model"
)

const tracerName = "github.com/signalsfoundry/groundwave/internal/service"

// DefaultMaxPoints bounds the number of elements in one sweep.
const DefaultMaxPoints = 100000

var (
	// ErrInvalidRequest marks a sweep request that cannot be run.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound marks a lookup of an unknown sweep run.
	ErrNotFound = errors.New("not found")
	// ErrPersistenceDisabled is returned by sweep-run lookups when no store is
	// configured.
	ErrPersistenceDisabled = errors.New("sweep persistence disabled")
	// ErrEngineFault is returned when the engine panicked during a request.
	ErrEngineFault = errors.New("engine fault")
)

// SweepRequest is the transport-facing form of a sweep. Exactly one of
// Values and Range must be set. A nil Baseline selects
// model.DefaultParameters.
type SweepRequest struct {
	Baseline  *model.InputParameters `json:"baseline,omitempty"`
	Dimension string                 `json:"dimension"`
	Field     string                 `json:"field,omitempty"`
	Values    []float64              `json:"values,omitempty"`
	Range     *core.SweepRange       `json:"range,omitempty"`
	Workers   int                    `json:"workers,omitempty"`
}

// Failure describes one sweep element that produced no value.
type Failure struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Code  int     `json:"code"`
	Error string  `json:"error"`
}

// SweepResponse is index-aligned: Values[i] is the result for Inputs[i], or
// null when element i failed.
type SweepResponse struct {
	ID        string            `json:"id,omitempty"`
	Dimension model.Dimension   `json:"dimension"`
	Field     model.ResultField `json:"field"`
	Inputs    model.Values      `json:"inputs"`
	Values    model.Values      `json:"values"`
	Failures  []Failure         `json:"failures"`
	Workers   int               `json:"workers"`
}

// Service coordinates the client, the batch evaluator and the optional store.
type Service struct {
	client    *core.Client
	batch     *core.BatchEvaluator
	store     store.SweepStore
	log       logging.Logger
	maxPoints int
}

// Option customises Service construction.
type Option func(*Service)

// WithStore enables sweep-run persistence.
func WithStore(s store.SweepStore) Option {
	return func(svc *Service) { svc.store = s }
}

// WithMaxPoints overrides DefaultMaxPoints. Values <= 0 are ignored.
func WithMaxPoints(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxPoints = n
		}
	}
}

// New builds a Service. log may be nil.
func New(client *core.Client, batch *core.BatchEvaluator, log logging.Logger, opts ...Option) (*Service, error) {
	if client == nil || batch == nil {
		return nil, errors.New("service requires a client and a batch evaluator")
	}
	log = logging.OrNoop(log)
	svc := &Service{
		client:    client,
		batch:     batch,
		log:       log,
		maxPoints: DefaultMaxPoints,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// PersistenceEnabled reports whether sweep runs are stored.
func (s *Service) PersistenceEnabled() bool { return s.store != nil }

// Evaluate runs one validated evaluation.
func (s *Service) Evaluate(ctx context.Context, p model.InputParameters) (res model.Result, err error) {
	ctx, span := startSpan(ctx, "service.Evaluate")
	defer func() { endSpan(span, err) }()
	defer s.recoverFault(ctx, &err)

	return s.client.Evaluate(ctx, p)
}

// Sweep expands and runs req. Element failures are reported in the response,
// not as an error.
func (s *Service) Sweep(ctx context.Context, req SweepRequest) (resp SweepResponse, err error) {
	ctx, span := startSpan(ctx, "service.Sweep")
	defer func() { endSpan(span, err) }()
	defer s.recoverFault(ctx, &err)

	batchReq, err := s.batchRequest(req)
	if err != nil {
		return SweepResponse{}, err
	}
	span.SetAttributes(
		attribute.String("lfmf.dimension", batchReq.Dimension.String()),
		attribute.Int("lfmf.elements", len(batchReq.Values)),
	)

	start := time.Now()
	out, err := s.batch.Evaluate(ctx, batchReq)
	if err != nil {
		return SweepResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	resp = SweepResponse{
		Dimension: batchReq.Dimension,
		Field:     batchReq.Field,
		Inputs:    model.Values(batchReq.Values),
		Values:    out.Values,
		Failures:  make([]Failure, 0, len(out.Failures)),
		Workers:   out.Workers,
	}
	for _, f := range out.Failures {
		code, _ := core.CodeOf(f.Err)
		resp.Failures = append(resp.Failures, Failure{Index: f.Index, Value: f.Value, Code: int(code), Error: f.Err.Error()})
	}

	if s.store != nil {
		run, err := s.store.Save(ctx, store.SweepRun{
			Dimension: resp.Dimension,
			Field:     resp.Field,
			Workers:   resp.Workers,
			Baseline:  batchReq.Baseline,
			Inputs:    resp.Inputs,
			Results:   resp.Values,
			Failures:  len(resp.Failures),
		})
		if err != nil {
			return SweepResponse{}, fmt.Errorf("persist sweep: %w", err)
		}
		resp.ID = run.ID
		span.SetAttributes(attribute.String("lfmf.sweep_id", run.ID))
	}

	s.log.Info(ctx, "sweep completed",
		logging.String("sweep_id", resp.ID),
		logging.String("dimension", resp.Dimension.String()),
		logging.String("field", resp.Field.String()),
		logging.Int("points", len(resp.Values)),
		logging.Int("failed", len(resp.Failures)),
		logging.Int("workers", resp.Workers),
		logging.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// GetSweep loads a stored sweep run.
func (s *Service) GetSweep(ctx context.Context, id string) (store.SweepRun, error) {
	if s.store == nil {
		return store.SweepRun{}, ErrPersistenceDisabled
	}
	ctx, span := startSpan(ctx, "service.GetSweep", attribute.String("lfmf.sweep_id", id))
	run, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		err = fmt.Errorf("%w: sweep %s", ErrNotFound, id)
	}
	endSpan(span, err)
	return run, err
}

// ListSweeps returns up to limit stored runs, newest first.
func (s *Service) ListSweeps(ctx context.Context, limit int) ([]store.SweepSummary, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	ctx, span := startSpan(ctx, "service.ListSweeps")
	runs, err := s.store.List(ctx, limit)
	endSpan(span, err)
	return runs, err
}

func (s *Service) batchRequest(req SweepRequest) (core.BatchRequest, error) {
	dim, err := model.ParseDimension(req.Dimension)
	if err != nil {
		return core.BatchRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	field, err := model.ParseResultField(req.Field)
	if err != nil {
		return core.BatchRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Workers < 0 {
		return core.BatchRequest{}, fmt.Errorf("%w: workers must be >= 0", ErrInvalidRequest)
	}

	values := req.Values
	switch {
	case len(req.Values) > 0 && req.Range != nil:
		return core.BatchRequest{}, fmt.Errorf("%w: set either values or range, not both", ErrInvalidRequest)
	case req.Range != nil:
		if req.Range.Count > s.maxPoints {
			return core.BatchRequest{}, fmt.Errorf("%w: %d points exceeds the limit of %d", ErrInvalidRequest, req.Range.Count, s.maxPoints)
		}
		if values, err = req.Range.Values(); err != nil {
			return core.BatchRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if len(values) == 0 {
		return core.BatchRequest{}, fmt.Errorf("%w: sweep has no values", ErrInvalidRequest)
	}
	if len(values) > s.maxPoints {
		return core.BatchRequest{}, fmt.Errorf("%w: %d points exceeds the limit of %d", ErrInvalidRequest, len(values), s.maxPoints)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.BatchRequest{}, fmt.Errorf("%w: value %d is not finite", ErrInvalidRequest, i)
		}
	}

	baseline := model.DefaultParameters()
	if req.Baseline != nil {
		baseline = *req.Baseline
	}
	return core.BatchRequest{
		Baseline:  baseline,
		Dimension: dim,
		Values:    values,
		Field:     field,
		Workers:   req.Workers,
	}, nil
}

// recoverFault turns an engine panic into ErrEngineFault so one faulting
// request does not take the server down.
func (s *Service) recoverFault(ctx context.Context, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	fault, ok := r.(*core.EngineFault)
	if !ok {
		fault = &core.EngineFault{Value: r}
	}
	s.log.Error(ctx, "engine fault", logging.Any("fault", fault.Value), logging.String("stack", string(fault.Stack)))
	*errp = fmt.Errorf("%w: %v", ErrEngineFault, fault.Value)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
