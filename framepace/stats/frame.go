// Package stats records per-frame pacing measurements and summarises them.
package stats

import (
	"time"

	"github.com/valerio/go-framepace/framepace/timing"
)

// Frame is what the loop observed for one frame.
type Frame struct {
	Number int
	// InputAt is when the frame polled input.
	InputAt time.Time
	// ExactAt is when the Exact Limiter returned.
	ExactAt time.Time
	// PresentedAt is when the frame's render work finished.
	PresentedAt time.Time
	// Interval is the spacing between this and the previous ExactAt.
	Interval time.Duration
	// Work is the synthetic render cost requested for the frame.
	Work time.Duration
	// Pacing is the pacer sample taken after the Exact Limiter, if the
	// loop is driving a Pacer.
	Pacing  timing.Sample
	Enabled bool
}

// Latency is the span from the input poll to the frame being presented.
func (f Frame) Latency() time.Duration {
	return f.PresentedAt.Sub(f.InputAt)
}
