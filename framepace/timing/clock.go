package timing

import "time"

// Clock is the instant source and sleep primitive used by the limiters.
// Now must be monotonic; Sleep must not return early.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

const (
	// spinThreshold is the remaining duration below which SystemClock stops
	// sleeping and busy-waits.
	spinThreshold = 2 * time.Millisecond
	// sleepSlack is how much earlier than the deadline the OS sleep is
	// asked to wake up.
	sleepSlack = time.Millisecond
)

// SystemClock is the wall clock with a hybrid sleep: an OS sleep for the bulk
// of the duration followed by a busy-wait for the tail, giving sub-millisecond
// precision at the cost of some CPU.
type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if d >= spinThreshold {
		time.Sleep(d - sleepSlack)
	}
	for time.Now().Before(deadline) {
		// busy-wait for the tail, higher accuracy.
	}
}

// CoarseClock is the wall clock with a plain OS sleep. It systematically
// overshoots short sleeps and is only meant for the buffered fallback and
// for comparisons.
type CoarseClock struct{}

func (CoarseClock) Now() time.Time {
	return time.Now()
}

func (CoarseClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// sub returns a-b, saturating at zero.
func sub(a, b time.Duration) time.Duration {
	if a <= b {
		return 0
	}
	return a - b
}

// since returns now-then, saturating at zero when the clock reports an
// instant earlier than then.
func since(now, then time.Time) time.Duration {
	d := now.Sub(then)
	if d < 0 {
		return 0
	}
	return d
}

// later returns the later of two instants, keeping checkpoints monotonic.
func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
