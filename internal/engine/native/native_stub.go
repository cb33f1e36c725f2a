//go:build !(cgo && lfmf)

package native

import "github.com/signalsfoundry/groundwave/model"

// Engine is a placeholder when the native binding is not compiled in.
type Engine struct{}

// Open always fails with ErrUnavailable in this build.
func Open() (*Engine, error) {
	return nil, ErrUnavailable
}

// Evaluate is never reachable because Open does not return an Engine.
func (e *Engine) Evaluate(model.InputParameters) (model.Result, error) {
	return model.Result{}, ErrUnavailable
}

// Calls always reports zero.
func (e *Engine) Calls() uint64 { return 0 }

// Close is a no-op.
func (e *Engine) Close() error { return nil }
