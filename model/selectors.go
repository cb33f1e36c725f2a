package model

import (
	"fmt"
	"strings"
)

// Dimension selects one of the nine InputParameters fields. The zero value is
// deliberately invalid so an unset selector is caught.
type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionTxHeight
	DimensionRxHeight
	DimensionFrequency
	DimensionTxPower
	DimensionSurfaceRefractivity
	DimensionDistance
	DimensionPermittivity
	DimensionConductivity
	DimensionPolarization
)

var dimensionNames = map[Dimension]string{
	DimensionTxHeight:            "tx_height_m",
	DimensionRxHeight:            "rx_height_m",
	DimensionFrequency:           "frequency_mhz",
	DimensionTxPower:             "tx_power_w",
	DimensionSurfaceRefractivity: "surface_refractivity",
	DimensionDistance:            "distance_km",
	DimensionPermittivity:        "permittivity",
	DimensionConductivity:        "conductivity_sm",
	DimensionPolarization:        "polarization",
}

// Dimensions lists every sweepable dimension in declaration order.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionTxHeight,
		DimensionRxHeight,
		DimensionFrequency,
		DimensionTxPower,
		DimensionSurfaceRefractivity,
		DimensionDistance,
		DimensionPermittivity,
		DimensionConductivity,
		DimensionPolarization,
	}
}

// Valid reports whether d names one of the nine parameters.
func (d Dimension) Valid() bool {
	_, ok := dimensionNames[d]
	return ok
}

// String returns the wire name of the dimension, matching the JSON tag of the
// corresponding InputParameters field.
func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return "unknown"
}

// ParseDimension resolves a wire name (case-insensitive) into a Dimension.
func ParseDimension(name string) (Dimension, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range dimensionNames {
		if n == name {
			return d, nil
		}
	}
	return DimensionUnknown, fmt.Errorf("unknown dimension %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid dimension %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(b []byte) error {
	parsed, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ResultField selects which Result value a sweep collects. The zero value is
// basic transmission loss, which is what sweeps collect unless told
// otherwise.
type ResultField int

const (
	FieldBasicTransmissionLoss ResultField = iota
	FieldFieldStrength
	FieldReceivedPower
	FieldMethod
)

var fieldNames = map[ResultField]string{
	FieldBasicTransmissionLoss: "basic_transmission_loss_db",
	FieldFieldStrength:         "field_strength_dbuvm",
	FieldReceivedPower:         "received_power_dbm",
	FieldMethod:                "method",
}

// Valid reports whether f names one of the four Result fields.
func (f ResultField) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

func (f ResultField) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseResultField resolves a wire name (case-insensitive) into a ResultField.
// The empty string selects basic transmission loss.
func ParseResultField(name string) (ResultField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FieldBasicTransmissionLoss, nil
	}
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown result field %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f ResultField) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid result field %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ResultField) UnmarshalText(b []byte) error {
	parsed, err := ParseResultField(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
