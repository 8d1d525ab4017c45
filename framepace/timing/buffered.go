package timing

import "time"

// DefaultBuffer is the fixed pad the buffered limiter subtracts from its
// sleep to absorb oversleep.
const DefaultBuffer = 2 * time.Millisecond

// maxSleepStep bounds each individual sleep in the buffered wait loop.
const maxSleepStep = time.Millisecond

// BufferedLimiter is the single-stage fallback for platforms without a
// precise sleep. Each frame it sleeps period-(elapsed+buffer), clamped at
// zero, as a loop of short sleeps re-checked against the clock.
type BufferedLimiter struct {
	clock  Clock
	period time.Duration
	buffer time.Duration
	last   time.Time
}

func NewBufferedLimiter(period, buffer time.Duration, clock Clock) *BufferedLimiter {
	if clock == nil {
		clock = CoarseClock{}
	}
	return &BufferedLimiter{
		clock:  clock,
		period: period,
		buffer: buffer,
		last:   clock.Now(),
	}
}

func (b *BufferedLimiter) WaitForNextFrame() {
	start := b.clock.Now()
	target := sub(b.period, since(start, b.last)+b.buffer)

	for {
		remaining := sub(target, since(b.clock.Now(), start))
		if remaining == 0 {
			break
		}
		b.clock.Sleep(min(remaining, maxSleepStep))
	}

	b.last = later(b.last, b.clock.Now())
}

func (b *BufferedLimiter) Reset() {
	b.last = later(b.last, b.clock.Now())
}
