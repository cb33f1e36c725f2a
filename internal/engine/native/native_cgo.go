//go:build cgo && lfmf

package native

/*
#cgo LDFLAGS: -lLFMF

typedef struct {
	double A_btl__db;
	double E_dBuVm;
	double P_rx__dbm;
	int method;
} lfmf_result;

int LFMF(double h_tx__meter, double h_rx__meter, double f__mhz, double P_tx__watt,
	double N_s, double d__km, double epsilon, double sigma, int pol, lfmf_result *result);
*/
import "C"

import (
	"sync/atomic"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/model"
)

// Engine calls the linked LFMF library.
type Engine struct {
	calls atomic.Uint64
}

// Open returns the native engine.
func Open() (*Engine, error) {
	return &Engine{}, nil
}

// Evaluate calls LFMF once. The status code is converted to a typed error
// before it leaves this function.
func (e *Engine) Evaluate(p model.InputParameters) (model.Result, error) {
	e.calls.Add(1)

	var res C.lfmf_result
	status := C.LFMF(
		C.double(p.TxHeightMeter),
		C.double(p.RxHeightMeter),
		C.double(p.FrequencyMHz),
		C.double(p.TxPowerWatt),
		C.double(p.SurfaceRefractivity),
		C.double(p.DistanceKm),
		C.double(p.Permittivity),
		C.double(p.ConductivitySm),
		C.int(p.Polarization),
		&res,
	)
	if err := core.StatusError(int(status)); err != nil {
		return model.Result{}, err
	}
	return model.Result{
		BasicTransmissionLossDB: float64(res.A_btl__db),
		FieldStrengthDBuVm:      float64(res.E_dBuVm),
		ReceivedPowerDBm:        float64(res.P_rx__dbm),
		Method:                  model.Method(res.method),
	}, nil
}

// Calls reports how many times the library has been invoked.
func (e *Engine) Calls() uint64 { return e.calls.Load() }

// Close releases the engine. The linked library holds no state, so this
// only exists to satisfy the Client lifecycle.
func (e *Engine) Close() error { return nil }
