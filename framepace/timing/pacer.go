package timing

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTargetRate   = 60
	DefaultSafetyMargin = 500 * time.Microsecond

	// MaxTargetRate is the highest rate whose period does not truncate to zero.
	MaxTargetRate = 1_000_000
)

var (
	ErrInvalidTargetRate    = errors.New("target rate must be between 1 and 1000000 frames per second")
	ErrNegativeSafetyMargin = errors.New("safety margin must not be negative")
)

// Config holds the pacing options. No other parameters are consulted.
type Config struct {
	TargetRate   int           `mapstructure:"target_rate" yaml:"target_rate"`
	SafetyMargin time.Duration `mapstructure:"safety_margin" yaml:"safety_margin"`
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		TargetRate:   DefaultTargetRate,
		SafetyMargin: DefaultSafetyMargin,
		Enabled:      true,
	}
}

func (c Config) Validate() error {
	if c.TargetRate <= 0 || c.TargetRate > MaxTargetRate {
		return fmt.Errorf("%w: got %d", ErrInvalidTargetRate, c.TargetRate)
	}
	if c.SafetyMargin < 0 {
		return fmt.Errorf("%w: got %v", ErrNegativeSafetyMargin, c.SafetyMargin)
	}
	return nil
}

// TargetPeriod is 1_000_000/TargetRate microseconds, truncated.
func (c Config) TargetPeriod() time.Duration {
	if c.TargetRate <= 0 {
		return 0
	}
	return time.Duration(1_000_000/c.TargetRate) * time.Microsecond
}

// Sample is what the two stages measured during the most recent frame.
type Sample struct {
	// Elapsed is the Exact Limiter's measured interval since its last run.
	Elapsed time.Duration
	// ExactSleep is how long the Exact Limiter actually blocked.
	ExactSleep time.Duration
	// FrameTime is the raw Forward Estimator window.
	FrameTime time.Duration
	// RenderTime is FrameTime with ExactSleep backed out.
	RenderTime time.Duration
	// EstimatedSleep is the pre-render sleep the Forward Estimator requested.
	EstimatedSleep time.Duration
}

// Pacer is the two-stage frame pacer. ExactLimiterTick enforces the rate
// ceiling; ForwardEstimatorTick sleeps ahead of the next frame's work using
// the current frame's measured cost, so input is sampled as late as possible.
//
// Both ticks must be called exactly once per frame, Exact Limiter first.
// A Pacer is owned by a single render loop and is not safe for concurrent use.
type Pacer struct {
	clock   Clock
	enabled bool
	period  time.Duration
	margin  time.Duration

	exactCheckpoint time.Time
	frameCheckpoint time.Time
	lastExactSleep  time.Duration

	sample Sample
}

// NewPacer validates cfg and returns a pacer whose checkpoints start at the
// clock's current time.
func NewPacer(cfg Config, clock Clock) (*Pacer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	now := clock.Now()
	return &Pacer{
		clock:           clock,
		enabled:         cfg.Enabled,
		period:          cfg.TargetPeriod(),
		margin:          cfg.SafetyMargin,
		exactCheckpoint: now,
		frameCheckpoint: now,
	}, nil
}

// ExactLimiterTick blocks until at least one target period has passed since
// the previous call returned. Overruns are not compensated.
func (p *Pacer) ExactLimiterTick() {
	now := p.clock.Now()
	elapsed := since(now, p.exactCheckpoint)
	sleepNeeded := sub(p.period, elapsed)
	if p.enabled {
		p.clock.Sleep(sleepNeeded)
	}

	p.exactCheckpoint = later(p.exactCheckpoint, p.clock.Now())
	p.lastExactSleep = min(since(p.exactCheckpoint, now), p.period)

	p.sample.Elapsed = elapsed
	p.sample.ExactSleep = p.lastExactSleep
}

// ForwardEstimatorTick predicts the next frame's cost from this frame's
// render time plus the safety margin and sleeps off the remaining budget.
func (p *Pacer) ForwardEstimatorTick() {
	renderEnd := p.clock.Now()
	frameTime := since(renderEnd, p.frameCheckpoint)
	renderTime := sub(frameTime, p.lastExactSleep)
	estimatedCost := renderTime + p.margin
	estimatedSleep := sub(p.period, estimatedCost)
	if p.enabled {
		p.clock.Sleep(estimatedSleep)
	}
	p.frameCheckpoint = later(p.frameCheckpoint, p.clock.Now())

	p.sample.FrameTime = frameTime
	p.sample.RenderTime = renderTime
	p.sample.EstimatedSleep = estimatedSleep
}

// SetEnabled turns sleeping on or off. Checkpoints keep advancing while
// disabled, so re-enabling does not see a stale interval.
func (p *Pacer) SetEnabled(enabled bool) {
	p.enabled = enabled
}

func (p *Pacer) Enabled() bool {
	return p.enabled
}

func (p *Pacer) Period() time.Duration {
	return p.period
}

func (p *Pacer) SafetyMargin() time.Duration {
	return p.margin
}

func (p *Pacer) Sample() Sample {
	return p.sample
}

// Reset re-seats both checkpoints at the current time, useful after a pause.
func (p *Pacer) Reset() {
	now := p.clock.Now()
	p.exactCheckpoint = later(p.exactCheckpoint, now)
	p.frameCheckpoint = later(p.frameCheckpoint, now)
	p.lastExactSleep = 0
	p.sample = Sample{}
}
