// Package config loads lfmf-server settings from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/observability"
)

// Server is the full lfmf-server configuration.
type Server struct {
	HTTPAddr    string `env:"LFMF_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr    string `env:"LFMF_GRPC_ADDR" envDefault:":50051"`
	MetricsAddr string `env:"LFMF_METRICS_ADDR" envDefault:":9090"`

	// Workers is the default sweep pool size; 0 uses the host parallelism.
	Workers        int `env:"LFMF_WORKERS" envDefault:"0"`
	MaxSweepPoints int `env:"LFMF_MAX_SWEEP_POINTS" envDefault:"100000"`

	Persist      bool   `env:"LFMF_PERSIST" envDefault:"true"`
	DatabasePath string `env:"LFMF_DB_PATH" envDefault:"lfmf.db"`

	Log     logging.Config              `envPrefix:"LFMF_LOG_"`
	Tracing observability.TracingConfig `envPrefix:"LFMF_TRACING_"`
}

// LoadServer parses and checks the server configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate reports settings that parse but cannot be served.
func (c Server) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("LFMF_WORKERS must be >= 0, got %d", c.Workers))
	}
	if c.MaxSweepPoints <= 0 {
		errs = append(errs, fmt.Errorf("LFMF_MAX_SWEEP_POINTS must be > 0, got %d", c.MaxSweepPoints))
	}
	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		errs = append(errs, errors.New("at least one of LFMF_HTTP_ADDR and LFMF_GRPC_ADDR is required"))
	}
	return errors.Join(errs...)
}

// StorePath returns the database path, or "" when persistence is off.
func (c Server) StorePath() string {
	if !c.Persist {
		return ""
	}
	return c.DatabasePath
}
