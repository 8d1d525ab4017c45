package stats

import (
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultCapacity keeps roughly the last minute of frames at 60fps.
const DefaultCapacity = 3600

// Recorder is a thread-safe circular buffer of frames plus running totals
// over every frame since the last Reset.
type Recorder struct {
	mutex   sync.RWMutex
	entries []Frame
	size    int
	index   int
	count   int

	total        int
	sumInterval  time.Duration
	minInterval  time.Duration
	maxInterval  time.Duration
	sumLatency   time.Duration
	maxLatency   time.Duration
	firstExactAt time.Time
	lastExactAt  time.Time
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultCapacity
	}
	return &Recorder{
		entries: make([]Frame, size),
		size:    size,
	}
}

// Add records a frame. The first frame after a Reset only anchors the
// interval measurement.
func (r *Recorder) Add(f Frame) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries[r.index] = f
	r.index = (r.index + 1) % r.size
	if r.count < r.size {
		r.count++
	}

	if r.total == 0 {
		r.firstExactAt = f.ExactAt
	} else {
		if r.total == 1 || f.Interval < r.minInterval {
			r.minInterval = f.Interval
		}
		r.maxInterval = max(r.maxInterval, f.Interval)
		r.sumInterval += f.Interval
	}
	r.lastExactAt = f.ExactAt
	r.sumLatency += f.Latency()
	r.maxLatency = max(r.maxLatency, f.Latency())
	r.total++
}

// Recent returns up to maxCount of the most recent frames, newest first.
func (r *Recorder) Recent(maxCount int) []Frame {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.count == 0 {
		return nil
	}

	count := r.count
	if maxCount > 0 && maxCount < count {
		count = maxCount
	}

	result := make([]Frame, count)
	for i := 0; i < count; i++ {
		result[i] = r.entries[(r.index-1-i+r.size)%r.size]
	}
	return result
}

func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.index, r.count, r.total = 0, 0, 0
	r.sumInterval, r.minInterval, r.maxInterval = 0, 0, 0
	r.sumLatency, r.maxLatency = 0, 0
	r.firstExactAt, r.lastExactAt = time.Time{}, time.Time{}
}

// Summary aggregates the recorded frames.
type Summary struct {
	Frames       int           `yaml:"frames"`
	MeanInterval time.Duration `yaml:"mean_interval"`
	MinInterval  time.Duration `yaml:"min_interval"`
	MaxInterval  time.Duration `yaml:"max_interval"`
	// P99Interval is computed over the frames still held in the ring.
	P99Interval time.Duration `yaml:"p99_interval"`
	MeanLatency time.Duration `yaml:"mean_latency"`
	MaxLatency  time.Duration `yaml:"max_latency"`
	FPS         float64       `yaml:"fps"`
}

func (r *Recorder) Summary() Summary {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s := Summary{Frames: r.total}
	if r.total == 0 {
		return s
	}
	s.MeanLatency = r.sumLatency / time.Duration(r.total)
	s.MaxLatency = r.maxLatency

	intervals := r.total - 1
	if intervals == 0 {
		return s
	}
	s.MeanInterval = r.sumInterval / time.Duration(intervals)
	s.MinInterval = r.minInterval
	s.MaxInterval = r.maxInterval
	if span := r.lastExactAt.Sub(r.firstExactAt); span > 0 {
		s.FPS = float64(intervals) / span.Seconds()
	}

	held := make([]time.Duration, 0, r.count)
	for i := 0; i < r.count; i++ {
		f := r.entries[(r.index-1-i+r.size)%r.size]
		if f.Interval > 0 {
			held = append(held, f.Interval)
		}
	}
	s.P99Interval = percentile(held, 0.99)
	return s
}

func percentile(ds []time.Duration, p float64) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	slices.Sort(ds)
	idx := int(math.Ceil(p*float64(len(ds)))) - 1
	return ds[min(max(idx, 0), len(ds)-1)]
}
