package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sum(ds []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total
}

func TestBufferedLimiter_SleepsPeriodMinusBuffer(t *testing.T) {
	clock := NewManualClock(epoch)
	period := PeriodFor(60)
	b := NewBufferedLimiter(period, DefaultBuffer, clock)

	clock.Advance(5 * time.Millisecond)
	b.WaitForNextFrame()

	sleeps := clock.Sleeps()
	assert.Equal(t, period-7*time.Millisecond, sum(sleeps))
	for _, d := range sleeps {
		assert.LessOrEqual(t, d, maxSleepStep)
	}
}

func TestBufferedLimiter_Overrun(t *testing.T) {
	clock := NewManualClock(epoch)
	b := NewBufferedLimiter(PeriodFor(60), DefaultBuffer, clock)

	clock.Advance(15 * time.Millisecond)
	b.WaitForNextFrame()
	assert.Empty(t, clock.Sleeps(), "within the buffer there is nothing left to sleep")

	clock.Advance(40 * time.Millisecond)
	b.WaitForNextFrame()
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, clock.Now(), b.last)
}

func TestBufferedLimiter_OversleepStopsEarly(t *testing.T) {
	clock := NewManualClock(epoch)
	clock.SetOversleep(600 * time.Microsecond)
	b := NewBufferedLimiter(PeriodFor(60), DefaultBuffer, clock)

	start := clock.Now()
	b.WaitForNextFrame()

	waited := clock.Now().Sub(start)
	target := PeriodFor(60) - DefaultBuffer
	assert.GreaterOrEqual(t, waited, target)
	assert.Less(t, waited, target+maxSleepStep+600*time.Microsecond)
}

func TestBufferedLimiter_Reset(t *testing.T) {
	clock := NewManualClock(epoch)
	b := NewBufferedLimiter(PeriodFor(60), DefaultBuffer, clock)

	clock.Advance(time.Hour)
	b.Reset()
	assert.Equal(t, clock.Now(), b.last)
}
