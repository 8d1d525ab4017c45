package workload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstant(t *testing.T) {
	w := Constant(3 * time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, w.Cost(0))
	assert.Equal(t, 3*time.Millisecond, w.Cost(1000))
}

func TestUniform(t *testing.T) {
	t.Run("stays within range", func(t *testing.T) {
		w, err := NewUniform(2*time.Millisecond, 10*time.Millisecond, 42)
		require.NoError(t, err)

		var total time.Duration
		for i := 0; i < 5000; i++ {
			c := w.Cost(i)
			assert.GreaterOrEqual(t, c, 2*time.Millisecond)
			assert.LessOrEqual(t, c, 10*time.Millisecond)
			total += c
		}
		mean := total / 5000
		assert.InDelta(t, float64(6*time.Millisecond), float64(mean), float64(300*time.Microsecond))
	})

	t.Run("same seed same sequence", func(t *testing.T) {
		a, err := NewUniform(0, time.Second, 7)
		require.NoError(t, err)
		b, err := NewUniform(0, time.Second, 7)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			assert.Equal(t, a.Cost(i), b.Cost(i))
		}
	})

	t.Run("degenerate range", func(t *testing.T) {
		w, err := NewUniform(time.Millisecond, time.Millisecond, 1)
		require.NoError(t, err)
		assert.Equal(t, time.Millisecond, w.Cost(0))
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := NewUniform(2*time.Millisecond, time.Millisecond, 1)
		assert.Error(t, err)
		_, err = NewUniform(-time.Millisecond, time.Millisecond, 1)
		assert.Error(t, err)
	})
}

func TestStep(t *testing.T) {
	w := Step{Before: 5 * time.Millisecond, After: 14 * time.Millisecond, At: 3}
	assert.Equal(t, 5*time.Millisecond, w.Cost(2))
	assert.Equal(t, 14*time.Millisecond, w.Cost(3))
	assert.Equal(t, 14*time.Millisecond, w.Cost(10))
}

func TestScaled(t *testing.T) {
	s := NewScaled(Constant(10 * time.Millisecond))
	assert.Equal(t, 100, s.Percent())
	assert.Equal(t, 10*time.Millisecond, s.Cost(0))

	assert.Equal(t, 110, s.Heavier())
	assert.Equal(t, 11*time.Millisecond, s.Cost(0))

	for i := 0; i < 50; i++ {
		s.Lighter()
	}
	assert.Equal(t, minPercent, s.Percent())
	assert.Equal(t, time.Millisecond, s.Cost(0))

	for i := 0; i < 200; i++ {
		s.Heavier()
	}
	assert.Equal(t, maxPercent, s.Percent())
}
