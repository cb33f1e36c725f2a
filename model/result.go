package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Method is the solution regime the engine selected.
type Method int

const (
	MethodFlatEarth     Method = 0 // flat earth with curve correction
	MethodResidueSeries Method = 1
)

func (m Method) String() string {
	switch m {
	case MethodFlatEarth:
		return "flat_earth"
	case MethodResidueSeries:
		return "residue_series"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// Result is the outcome of one successful evaluation.
type Result struct {
	BasicTransmissionLossDB float64 `json:"basic_transmission_loss_db"`
	FieldStrengthDBuVm      float64 `json:"field_strength_dbuvm"`
	ReceivedPowerDBm        float64 `json:"received_power_dbm"`
	Method                  Method  `json:"method"`
}

// Value extracts the field selected by f.
func (r Result) Value(f ResultField) (float64, error) {
	switch f {
	case FieldBasicTransmissionLoss:
		return r.BasicTransmissionLossDB, nil
	case FieldFieldStrength:
		return r.FieldStrengthDBuVm, nil
	case FieldReceivedPower:
		return r.ReceivedPowerDBm, nil
	case FieldMethod:
		return float64(r.Method), nil
	default:
		return math.NaN(), fmt.Errorf("unknown result field %d", int(f))
	}
}

// Values is a sweep output. NaN marks a failed element and is encoded as
// JSON null, since JSON has no NaN literal.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	out := make([]*float64, len(v))
	for i := range v {
		if math.IsNaN(v[i]) {
			continue
		}
		x := v[i]
		out[i] = &x
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Values) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = nil
		return nil
	}
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, x := range raw {
		if x == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *x
	}
	*v = out
	return nil
}
