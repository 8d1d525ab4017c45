package timing

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when told to. Sleep advances
// the clock by the requested duration plus an optional fixed oversleep, which
// models the scheduling granularity of a real sleep primitive.
//
// It is used by tests and by simulated benchmark runs.
type ManualClock struct {
	mu        sync.Mutex
	now       time.Time
	oversleep time.Duration
	slept     []time.Duration
}

// NewManualClock returns a clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	if d <= 0 {
		return
	}
	c.now = c.now.Add(d + c.oversleep)
}

// Advance moves the clock forward by d, standing in for work done by the
// caller.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t, which may be earlier than the current time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SetOversleep makes every subsequent non-zero Sleep overshoot by d.
func (c *ManualClock) SetOversleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oversleep = d
}

// Sleeps returns the durations requested from Sleep, in call order,
// and clears the record.
func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.slept
	c.slept = nil
	return out
}
