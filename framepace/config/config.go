// Package config loads the framepace configuration in layers: built-in
// defaults, an optional YAML file, FRAMEPACE_* environment variables, and
// finally whatever the CLI sets explicitly.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-framepace/framepace/timing"
	"github.com/valerio/go-framepace/framepace/workload"
)

// Workload kinds
const (
	WorkloadConstant = "constant"
	WorkloadUniform  = "uniform"
	WorkloadStep     = "step"
)

// Backends
const (
	BackendTerminal = "terminal"
	BackendHeadless = "headless"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Pacing   timing.Config  `mapstructure:"pacing" yaml:"pacing"`
	Mode     string         `mapstructure:"mode" yaml:"mode"`
	Buffer   time.Duration  `mapstructure:"buffer" yaml:"buffer"`
	Workload WorkloadConfig `mapstructure:"workload" yaml:"workload"`
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Frames   int            `mapstructure:"frames" yaml:"frames"`
	// Simulated runs on a manual clock: no real sleeping, deterministic.
	Simulated bool   `mapstructure:"simulated" yaml:"simulated"`
	Report    string `mapstructure:"report" yaml:"report,omitempty"`
}

// WorkloadConfig describes the synthetic render cost.
type WorkloadConfig struct {
	Kind       string        `mapstructure:"kind" yaml:"kind"`
	Constant   time.Duration `mapstructure:"constant" yaml:"constant"`
	Min        time.Duration `mapstructure:"min" yaml:"min"`
	Max        time.Duration `mapstructure:"max" yaml:"max"`
	StepBefore time.Duration `mapstructure:"step_before" yaml:"step_before"`
	StepAfter  time.Duration `mapstructure:"step_after" yaml:"step_after"`
	StepFrame  int           `mapstructure:"step_frame" yaml:"step_frame"`
	Prepare    time.Duration `mapstructure:"prepare" yaml:"prepare"`
	Seed       uint64        `mapstructure:"seed" yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pacing: timing.DefaultConfig(),
		Mode:   string(timing.ModeTwoStage),
		Buffer: timing.DefaultBuffer,
		Workload: WorkloadConfig{
			Kind:       WorkloadUniform,
			Constant:   5 * time.Millisecond,
			Min:        2 * time.Millisecond,
			Max:        10 * time.Millisecond,
			StepBefore: 5 * time.Millisecond,
			StepAfter:  14 * time.Millisecond,
			StepFrame:  120,
			Seed:       1,
		},
		Backend: BackendTerminal,
		Frames:  600,
	}
}

// Validate checks every field that cannot be caught by decoding.
func (c Config) Validate() error {
	if err := c.Pacing.Validate(); err != nil {
		return fmt.Errorf("%w: pacing: %w", ErrInvalidConfig, err)
	}
	mode, err := timing.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if mode == timing.ModeTicker && c.Simulated {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, timing.ErrTickerNeedsSystemClock)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("%w: buffer must not be negative", ErrInvalidConfig)
	}
	switch c.Backend {
	case BackendTerminal:
	case BackendHeadless:
		if c.Frames <= 0 {
			return fmt.Errorf("%w: headless backend requires a positive frame count", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.Workload.Prepare < 0 {
		return fmt.Errorf("%w: workload prepare must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Workload.Build(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Build creates the workload the configuration describes.
func (w WorkloadConfig) Build() (workload.Workload, error) {
	switch w.Kind {
	case WorkloadConstant:
		if w.Constant < 0 {
			return nil, errors.New("constant workload must not be negative")
		}
		return workload.Constant(w.Constant), nil
	case WorkloadUniform:
		u, err := workload.NewUniform(w.Min, w.Max, w.Seed)
		if err != nil {
			return nil, err
		}
		return u, nil
	case WorkloadStep:
		if w.StepBefore < 0 || w.StepAfter < 0 || w.StepFrame < 0 {
			return nil, errors.New("step workload values must not be negative")
		}
		return workload.Step{Before: w.StepBefore, After: w.StepAfter, At: w.StepFrame}, nil
	default:
		return nil, fmt.Errorf("unknown workload kind %q", w.Kind)
	}
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(data), nil
}
