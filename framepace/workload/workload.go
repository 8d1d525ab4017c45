// Package workload provides synthetic per-frame render costs for driving the
// render loop without a real renderer.
package workload

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Workload returns the render cost of a frame.
type Workload interface {
	Cost(frame int) time.Duration
}

// Constant costs the same every frame.
type Constant time.Duration

func (c Constant) Cost(int) time.Duration {
	return time.Duration(c)
}

// Uniform draws costs uniformly from [Min, Max].
type Uniform struct {
	min, max time.Duration
	rng      *rand.Rand
}

func NewUniform(min, max time.Duration, seed uint64) (*Uniform, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid uniform workload range [%v, %v]", min, max)
	}
	return &Uniform{
		min: min,
		max: max,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (u *Uniform) Cost(int) time.Duration {
	span := int64(u.max - u.min)
	if span == 0 {
		return u.min
	}
	return u.min + time.Duration(u.rng.Int64N(span+1))
}

// Step costs Before until frame At, then After from there on.
type Step struct {
	Before time.Duration
	After  time.Duration
	At     int
}

func (s Step) Cost(frame int) time.Duration {
	if frame < s.At {
		return s.Before
	}
	return s.After
}

// Scaled multiplies another workload's cost by an adjustable percentage.
// The factor may be changed from the input goroutine while the loop runs.
type Scaled struct {
	inner   Workload
	percent atomic.Int64
}

const (
	scaleStep   = 10
	minPercent  = 10
	maxPercent  = 1000
	basePercent = 100
)

func NewScaled(inner Workload) *Scaled {
	s := &Scaled{inner: inner}
	s.percent.Store(basePercent)
	return s
}

func (s *Scaled) Cost(frame int) time.Duration {
	return s.inner.Cost(frame) * time.Duration(s.percent.Load()) / basePercent
}

// Heavier increases the scale by ten percentage points.
func (s *Scaled) Heavier() int {
	return s.adjust(scaleStep)
}

// Lighter decreases the scale by ten percentage points.
func (s *Scaled) Lighter() int {
	return s.adjust(-scaleStep)
}

func (s *Scaled) Percent() int {
	return int(s.percent.Load())
}

func (s *Scaled) adjust(delta int64) int {
	for {
		old := s.percent.Load()
		next := min(max(old+delta, minPercent), maxPercent)
		if s.percent.CompareAndSwap(old, next) {
			return int(next)
		}
	}
}
