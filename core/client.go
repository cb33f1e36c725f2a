package core

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/model"
)

// Client owns the engine handle. Construct it once at startup, share it
// across goroutines, and Close it at shutdown.
type Client struct {
	engine  Engine
	log     logging.Logger
	metrics MetricsRecorder

	// mu is held for reading around every engine call so Close can wait for
	// in-flight calls before releasing the engine.
	mu     sync.RWMutex
	closed bool
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithMetricsRecorder attaches a recorder for per-evaluation metrics.
func WithMetricsRecorder(m MetricsRecorder) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClient wraps engine. log may be nil.
func NewClient(engine Engine, log logging.Logger, opts ...ClientOption) (*Client, error) {
	if engine == nil {
		return nil, errors.New("lfmf engine is nil")
	}
	log = logging.OrNoop(log)
	c := &Client{
		engine:  engine,
		log:     log,
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Evaluate runs the validation gate and, if it passes, the engine. It blocks
// until the engine returns. Failures are *Error values; ErrClosed is returned
// after Close.
func (c *Client) Evaluate(ctx context.Context, p model.InputParameters) (model.Result, error) {
	start := time.Now()
	res, err := c.evaluate(ctx, p)
	if errors.Is(err, ErrClosed) {
		return model.Result{}, err
	}

	code := CodeSuccess
	if err != nil {
		code, _ = CodeOf(err)
	}
	c.metrics.ObserveEvaluation(code, time.Since(start))
	return res, err
}

func (c *Client) evaluate(ctx context.Context, p model.InputParameters) (model.Result, error) {
	if err := Validate(p); err != nil {
		return model.Result{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return model.Result{}, ErrClosed
	}
	res, err := c.engine.Evaluate(p)
	if err != nil {
		if _, ok := CodeOf(err); !ok {
			// Engines are expected to return *Error; anything else is
			// reported as an unspecified engine failure.
			c.log.Warn(ctx, "engine returned untyped error", logging.Err(err))
			return model.Result{}, NewError(CodeUnspecified)
		}
		return model.Result{}, err
	}
	return res, nil
}

// Close releases the engine. It waits for in-flight evaluations and is safe
// to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if closer, ok := c.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
