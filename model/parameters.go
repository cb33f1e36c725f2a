package model

import "math"

// Polarization is the orientation of the radiated electric field relative to
// the ground.
type Polarization int

const (
	PolarizationHorizontal Polarization = 0
	PolarizationVertical   Polarization = 1
)

// String returns a lower-case name for the polarization.
func (p Polarization) String() string {
	switch p {
	case PolarizationHorizontal:
		return "horizontal"
	case PolarizationVertical:
		return "vertical"
	default:
		return "invalid"
	}
}

// InputParameters is one complete LFMF query. Field order matches the engine
// call signature and the order in which the engine validates its inputs.
type InputParameters struct {
	TxHeightMeter       float64      `json:"tx_height_m"`
	RxHeightMeter       float64      `json:"rx_height_m"`
	FrequencyMHz        float64      `json:"frequency_mhz"`
	TxPowerWatt         float64      `json:"tx_power_w"`
	SurfaceRefractivity float64      `json:"surface_refractivity"` // N-units
	DistanceKm          float64      `json:"distance_km"`
	Permittivity        float64      `json:"permittivity"`    // relative
	ConductivitySm      float64      `json:"conductivity_sm"` // S/m
	Polarization        Polarization `json:"polarization"`
}

// DefaultParameters returns the reference run used when a sweep omits its
// baseline: a 50 kW vertical transmitter at 10 kHz over 100 km of average
// ground.
func DefaultParameters() InputParameters {
	return InputParameters{
		TxHeightMeter:       2,
		RxHeightMeter:       2,
		FrequencyMHz:        0.01,
		TxPowerWatt:         50e3,
		SurfaceRefractivity: 250,
		DistanceKm:          100,
		Permittivity:        20,
		ConductivitySm:      0.01,
		Polarization:        PolarizationVertical,
	}
}

// With returns a copy of p with the field selected by d set to v.
// Polarization overrides must be integral; anything else yields an invalid
// polarization so the validation gate rejects it instead of truncating.
func (p InputParameters) With(d Dimension, v float64) InputParameters {
	switch d {
	case DimensionTxHeight:
		p.TxHeightMeter = v
	case DimensionRxHeight:
		p.RxHeightMeter = v
	case DimensionFrequency:
		p.FrequencyMHz = v
	case DimensionTxPower:
		p.TxPowerWatt = v
	case DimensionSurfaceRefractivity:
		p.SurfaceRefractivity = v
	case DimensionDistance:
		p.DistanceKm = v
	case DimensionPermittivity:
		p.Permittivity = v
	case DimensionConductivity:
		p.ConductivitySm = v
	case DimensionPolarization:
		p.Polarization = polarizationFromFloat(v)
	}
	return p
}

// Get returns the value of the field selected by d.
func (p InputParameters) Get(d Dimension) float64 {
	switch d {
	case DimensionTxHeight:
		return p.TxHeightMeter
	case DimensionRxHeight:
		return p.RxHeightMeter
	case DimensionFrequency:
		return p.FrequencyMHz
	case DimensionTxPower:
		return p.TxPowerWatt
	case DimensionSurfaceRefractivity:
		return p.SurfaceRefractivity
	case DimensionDistance:
		return p.DistanceKm
	case DimensionPermittivity:
		return p.Permittivity
	case DimensionConductivity:
		return p.ConductivitySm
	case DimensionPolarization:
		return float64(p.Polarization)
	default:
		return math.NaN()
	}
}

func polarizationFromFloat(v float64) Polarization {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return Polarization(-1)
	}
	return Polarization(int(v))
}
