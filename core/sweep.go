package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSweep indicates sweep generator arguments that cannot produce a
// sequence.
var ErrInvalidSweep = errors.New("invalid sweep")

// Scale selects how a SweepRange spaces its points.
type Scale string

const (
	ScaleLinear    Scale = "linear"
	ScaleGeometric Scale = "geometric"
)

// SweepRange describes Count points from Start to Stop, both inclusive.
type SweepRange struct {
	Scale Scale   `json:"scale"`
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Count int     `json:"count"`
}

// Values expands the range. An empty Scale is linear.
func (r SweepRange) Values() ([]float64, error) {
	switch Scale(strings.ToLower(string(r.Scale))) {
	case ScaleLinear, "":
		return Linspace(r.Start, r.Stop, r.Count)
	case ScaleGeometric:
		return Geomspace(r.Start, r.Stop, r.Count)
	default:
		return nil, fmt.Errorf("%w: unknown scale %q", ErrInvalidSweep, r.Scale)
	}
}

// Linspace returns n evenly spaced values over [start, stop]. The endpoints
// are exact. n == 1 yields [start].
func Linspace(start, stop float64, n int) ([]float64, error) {
	if err := checkSweepArgs(start, stop, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	out[0] = start
	if n == 1 {
		return out, nil
	}
	step := (stop - start) / float64(n-1)
	for i := 1; i < n-1; i++ {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out, nil
}

// Geomspace returns n values over [start, stop] spaced evenly on a log
// scale. Both endpoints must be nonzero with the same sign; they are exact in
// the output.
func Geomspace(start, stop float64, n int) ([]float64, error) {
	if err := checkSweepArgs(start, stop, n); err != nil {
		return nil, err
	}
	if start == 0 || stop == 0 {
		return nil, fmt.Errorf("%w: geometric sweep endpoints must be nonzero", ErrInvalidSweep)
	}
	if math.Signbit(start) != math.Signbit(stop) {
		return nil, fmt.Errorf("%w: geometric sweep endpoints must share a sign", ErrInvalidSweep)
	}

	sign := 1.0
	if start < 0 {
		sign = -1
	}
	logStart := math.Log10(math.Abs(start))
	logStop := math.Log10(math.Abs(stop))

	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	out[0] = start
	if n == 1 {
		return out, nil
	}
	step := (logStop - logStart) / float64(n-1)
	for i := 1; i < n-1; i++ {
		out[i] = sign * math.Pow(10, logStart+float64(i)*step)
	}
	out[n-1] = stop
	return out, nil
}

func checkSweepArgs(start, stop float64, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative point count %d", ErrInvalidSweep, n)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(stop) || math.IsInf(stop, 0) {
		return fmt.Errorf("%w: endpoints must be finite", ErrInvalidSweep)
	}
	return nil
}
