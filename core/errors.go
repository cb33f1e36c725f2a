package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/groundwave/model"
)

// ErrorCode is an LFMF status code. Codes 1000-1008 are bound one-to-one to
// the nine input fields in declaration order; any other nonzero code is an
// engine-internal failure.
type ErrorCode int

const (
	CodeSuccess             ErrorCode = 0
	CodeTxHeight            ErrorCode = 1000
	CodeRxHeight            ErrorCode = 1001
	CodeFrequency           ErrorCode = 1002
	CodeTxPower             ErrorCode = 1003
	CodeSurfaceRefractivity ErrorCode = 1004
	CodeDistance            ErrorCode = 1005
	CodePermittivity        ErrorCode = 1006
	CodeConductivity        ErrorCode = 1007
	CodePolarization        ErrorCode = 1008

	// CodeUnspecified stands in for an engine failure that carried no
	// status code of its own.
	CodeUnspecified ErrorCode = -1
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindEngine
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

var (
	// ErrValidation matches (via errors.Is) any Error bound to an input field.
	ErrValidation = errors.New("validation error")
	// ErrEngine matches (via errors.Is) any engine-internal Error.
	ErrEngine = errors.New("engine error")
)

const unknownErrorMessage = "unknown error"

var codeMessages = map[ErrorCode]string{
	CodeTxHeight:            "transmitter height out of range [0, 50] m",
	CodeRxHeight:            "receiver height out of range [0, 50] m",
	CodeFrequency:           "frequency out of range [0.01, 30] MHz",
	CodeTxPower:             "transmitter power must be greater than 0 W",
	CodeSurfaceRefractivity: "surface refractivity out of range [250, 400] N-units",
	CodeDistance:            "path distance out of range (0, 10000] km",
	CodePermittivity:        "relative permittivity must be at least 1",
	CodeConductivity:        "conductivity must be greater than 0 S/m",
	CodePolarization:        "invalid polarization (0 = horizontal, 1 = vertical)",
}

var codeDimensions = map[ErrorCode]model.Dimension{
	CodeTxHeight:            model.DimensionTxHeight,
	CodeRxHeight:            model.DimensionRxHeight,
	CodeFrequency:           model.DimensionFrequency,
	CodeTxPower:             model.DimensionTxPower,
	CodeSurfaceRefractivity: model.DimensionSurfaceRefractivity,
	CodeDistance:            model.DimensionDistance,
	CodePermittivity:        model.DimensionPermittivity,
	CodeConductivity:        model.DimensionConductivity,
	CodePolarization:        model.DimensionPolarization,
}

// Message returns the fixed human-readable description of the code.
func (c ErrorCode) Message() string {
	if c == CodeSuccess {
		return "success"
	}
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return unknownErrorMessage
}

// Kind reports whether the code is a validation or an engine failure.
func (c ErrorCode) Kind() ErrorKind {
	if _, ok := codeDimensions[c]; ok {
		return KindValidation
	}
	return KindEngine
}

// Error is a failed LFMF evaluation.
type Error struct {
	Code ErrorCode
}

// NewError builds an Error for a nonzero code.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("lfmf %s error %d: %s", e.Kind(), int(e.Code), e.Code.Message())
}

// Kind classifies the error.
func (e *Error) Kind() ErrorKind { return e.Code.Kind() }

// Field returns the input field a validation error is bound to, or
// DimensionUnknown for engine errors.
func (e *Error) Field() model.Dimension {
	return codeDimensions[e.Code]
}

// Is lets callers match on ErrValidation / ErrEngine.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind() == KindValidation
	case ErrEngine:
		return e.Kind() == KindEngine
	}
	return false
}

// StatusError converts a raw engine status into a typed error. Status 0 maps
// to nil. This is the only place raw integers from the engine are inspected.
func StatusError(status int) error {
	if status == int(CodeSuccess) {
		return nil
	}
	return NewError(ErrorCode(status))
}

// CodeOf extracts the ErrorCode from err, reporting false when err does not
// wrap an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// EngineFault is raised (as a panic) when an engine call faults instead of
// returning a status. It is never absorbed into a batch's NaN sentinels.
type EngineFault struct {
	Value any
	Stack []byte
}

func (f *EngineFault) Error() string {
	return fmt.Sprintf("lfmf engine fault: %v", f.Value)
}

var (
	// ErrClosed is returned by a Client after Close.
	ErrClosed = errors.New("lfmf client closed")
	// ErrInvalidBatch indicates a malformed BatchRequest.
	ErrInvalidBatch = errors.New("invalid batch request")
)
