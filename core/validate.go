package core

import (
	"math"

	"github.com/signalsfoundry/groundwave/model"
)

// Documented input ranges. Bounds are inclusive unless noted.
const (
	MinHeightMeter          = 0.0
	MaxHeightMeter          = 50.0
	MinFrequencyMHz         = 0.01
	MaxFrequencyMHz         = 30.0
	MinSurfaceRefractivity  = 250.0
	MaxSurfaceRefractivity  = 400.0
	MaxDistanceKm           = 10000.0 // lower bound is exclusive 0
	MinRelativePermittivity = 1.0
)

type check struct {
	code  ErrorCode
	valid func(model.InputParameters) bool
}

// checks run in declaration order; the first failure wins.
var checks = []check{
	{CodeTxHeight, func(p model.InputParameters) bool {
		return within(p.TxHeightMeter, MinHeightMeter, MaxHeightMeter)
	}},
	{CodeRxHeight, func(p model.InputParameters) bool {
		return within(p.RxHeightMeter, MinHeightMeter, MaxHeightMeter)
	}},
	{CodeFrequency, func(p model.InputParameters) bool {
		return within(p.FrequencyMHz, MinFrequencyMHz, MaxFrequencyMHz)
	}},
	{CodeTxPower, func(p model.InputParameters) bool {
		return finite(p.TxPowerWatt) && p.TxPowerWatt > 0
	}},
	{CodeSurfaceRefractivity, func(p model.InputParameters) bool {
		return within(p.SurfaceRefractivity, MinSurfaceRefractivity, MaxSurfaceRefractivity)
	}},
	{CodeDistance, func(p model.InputParameters) bool {
		return finite(p.DistanceKm) && p.DistanceKm > 0 && p.DistanceKm <= MaxDistanceKm
	}},
	{CodePermittivity, func(p model.InputParameters) bool {
		return finite(p.Permittivity) && p.Permittivity >= MinRelativePermittivity
	}},
	{CodeConductivity, func(p model.InputParameters) bool {
		return finite(p.ConductivitySm) && p.ConductivitySm > 0
	}},
	{CodePolarization, func(p model.InputParameters) bool {
		return p.Polarization == model.PolarizationHorizontal || p.Polarization == model.PolarizationVertical
	}},
}

// Validate checks p against the documented ranges in declaration order and
// returns an *Error for the first field that is out of range. Values are
// never clamped. Non-finite values are out of range for every field.
func Validate(p model.InputParameters) error {
	for _, c := range checks {
		if !c.valid(p) {
			return NewError(c.code)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func within(v, lo, hi float64) bool {
	return finite(v) && v >= lo && v <= hi
}
