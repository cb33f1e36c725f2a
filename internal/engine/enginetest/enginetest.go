// Package enginetest provides a deterministic in-process LFMF engine for
// tests, in the spirit of net/http/httptest.
//
// The numbers it returns are shaped like LFMF output (loss grows with
// distance and frequency, received power and field strength follow from the
// loss) but they are not propagation predictions. Tests that need real
// values belong next to the native binding.
package enginetest

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/model"
)

// Engine is a pure, concurrency-safe core.Engine. The optional hooks are read
// without synchronisation and must be set before the engine is shared.
type Engine struct {
	// Status, when set, may return a raw engine status for p. A nonzero
	// status is reported through core.StatusError instead of computing a
	// result, which lets tests inject engine-internal failures.
	Status func(p model.InputParameters) int
	// Fault, when set and returning non-nil, makes Evaluate panic with that
	// value, standing in for a native fault.
	Fault func(p model.InputParameters) any
	// Delay, when set, sleeps before returning, so tests can scramble the
	// order in which workers finish.
	Delay func(p model.InputParameters) time.Duration

	calls  atomic.Int64
	closed atomic.Bool
}

// New returns an engine with no hooks.
func New() *Engine { return &Engine{} }

// Evaluate mirrors the engine's own range checks and then computes a
// deterministic result.
func (e *Engine) Evaluate(p model.InputParameters) (model.Result, error) {
	e.calls.Add(1)
	if e.Delay != nil {
		if d := e.Delay(p); d > 0 {
			time.Sleep(d)
		}
	}
	if e.Fault != nil {
		if v := e.Fault(p); v != nil {
			panic(v)
		}
	}
	if e.Status != nil {
		if err := core.StatusError(e.Status(p)); err != nil {
			return model.Result{}, err
		}
	}
	if err := core.Validate(p); err != nil {
		return model.Result{}, err
	}
	return Compute(p), nil
}

// Compute returns the synthetic result for p without validation.
func Compute(p model.InputParameters) model.Result {
	freeSpace := 32.45 + 20*math.Log10(p.FrequencyMHz) + 20*math.Log10(p.DistanceKm)
	ground := 10 * math.Log10(1+p.DistanceKm*p.FrequencyMHz/(10*math.Sqrt(p.ConductivitySm*p.Permittivity)))
	if p.Polarization == model.PolarizationHorizontal {
		ground *= 2
	}
	heightGain := 0.01 * (p.TxHeightMeter + p.RxHeightMeter)
	loss := freeSpace + ground - heightGain

	rx := 10*math.Log10(p.TxPowerWatt*1000) - loss
	field := rx + 20*math.Log10(p.FrequencyMHz) + 77.2

	method := model.MethodFlatEarth
	if p.DistanceKm >= 80/math.Cbrt(p.FrequencyMHz) {
		method = model.MethodResidueSeries
	}
	return model.Result{
		BasicTransmissionLossDB: loss,
		FieldStrengthDBuVm:      field,
		ReceivedPowerDBm:        rx,
		Method:                  method,
	}
}

// Calls reports how many times Evaluate has been entered.
func (e *Engine) Calls() int64 { return e.calls.Load() }

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool { return e.closed.Load() }

// Close records that the owning client released the engine.
func (e *Engine) Close() error {
	e.closed.Store(true)
	return nil
}

// Baseline returns the reference scenario used throughout the tests:
// 10 m / 1.5 m terminals at 15 MHz, 1 W, N_s 250, 1 km over ground with
// permittivity 15 and conductivity 0.01 S/m, vertical polarization.
func Baseline() model.InputParameters {
	return model.InputParameters{
		TxHeightMeter:       10,
		RxHeightMeter:       1.5,
		FrequencyMHz:        15,
		TxPowerWatt:         1,
		SurfaceRefractivity: 250,
		DistanceKm:          1,
		Permittivity:        15,
		ConductivitySm:      0.01,
		Polarization:        model.PolarizationVertical,
	}
}
