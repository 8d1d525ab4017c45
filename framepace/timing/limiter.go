package timing

import "time"

// Limiter is a single-stage frame limiter.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Stages is the two-hook contract the render loop drives once per frame:
// ExactLimiterTick at a fixed point inside the frame, ForwardEstimatorTick
// once the frame's render work is complete.
type Stages interface {
	ExactLimiterTick()
	ForwardEstimatorTick()
}

// Resetter is implemented by stages that can re-seat their timing state,
// e.g. after backend start-up or a pause.
type Resetter interface {
	Reset()
}

var (
	_ Stages   = (*Pacer)(nil)
	_ Resetter = (*Pacer)(nil)
	_ Resetter = ExactOnly{}
	_ Resetter = LimiterStages{}
)

// ExactOnly drives only the Exact Limiter of a Pacer. The rate ceiling holds
// but no pre-render sleep is taken, so input is sampled a full frame early.
type ExactOnly struct {
	Pacer *Pacer
}

func (e ExactOnly) ExactLimiterTick()     { e.Pacer.ExactLimiterTick() }
func (e ExactOnly) ForwardEstimatorTick() {}
func (e ExactOnly) Reset()                { e.Pacer.Reset() }

// LimiterStages runs a single-stage Limiter at the Exact Limiter point.
type LimiterStages struct {
	Limiter Limiter
}

func (l LimiterStages) ExactLimiterTick()     { l.Limiter.WaitForNextFrame() }
func (l LimiterStages) ForwardEstimatorTick() {}
func (l LimiterStages) Reset()                { l.Limiter.Reset() }

// PeriodFor returns the frame period for rate, truncated to microseconds
// like Config.TargetPeriod.
func PeriodFor(rate int) time.Duration {
	return Config{TargetRate: rate}.TargetPeriod()
}
