package timing

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects which limiter drives the two pacing hooks.
type Mode string

const (
	// ModeTwoStage is the Exact Limiter plus Forward Estimator.
	ModeTwoStage Mode = "two-stage"
	// ModeExactOnly enforces the rate ceiling without the pre-render sleep.
	ModeExactOnly Mode = "exact-only"
	// ModeBuffered is the single-stage fallback limiter.
	ModeBuffered Mode = "buffered"
	// ModeTicker waits on a time.Ticker.
	ModeTicker Mode = "ticker"
	// ModeNone does not limit.
	ModeNone Mode = "none"
)

// Modes lists every mode, primary first.
var Modes = []Mode{ModeTwoStage, ModeExactOnly, ModeBuffered, ModeTicker, ModeNone}

var (
	ErrUnknownMode            = errors.New("unknown pacing mode")
	ErrTickerNeedsSystemClock = errors.New("ticker mode only runs on the system clock")
)

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// Setup is a ready-to-drive set of stages.
type Setup struct {
	Stages Stages
	// Pacer is set for modes built on the two-stage pacer.
	Pacer *Pacer
	stop  func()
}

// Close releases resources held by the stages.
func (s Setup) Close() {
	if s.stop != nil {
		s.stop()
	}
}

// NewSetup builds the stages for mode. buffer only applies to ModeBuffered.
func NewSetup(mode Mode, cfg Config, buffer time.Duration, clock Clock) (Setup, error) {
	if err := cfg.Validate(); err != nil {
		return Setup{}, err
	}

	switch mode {
	case ModeTwoStage, ModeExactOnly:
		p, err := NewPacer(cfg, clock)
		if err != nil {
			return Setup{}, err
		}
		if mode == ModeExactOnly {
			return Setup{Stages: ExactOnly{Pacer: p}, Pacer: p}, nil
		}
		return Setup{Stages: p, Pacer: p}, nil
	case ModeBuffered:
		// The buffered wait is a loop of short OS sleeps; the hybrid
		// SystemClock would spin through all of them.
		if _, ok := clock.(SystemClock); ok {
			clock = CoarseClock{}
		}
		l := NewBufferedLimiter(cfg.TargetPeriod(), buffer, clock)
		return Setup{Stages: LimiterStages{Limiter: l}}, nil
	case ModeTicker:
		if _, ok := clock.(*ManualClock); ok {
			return Setup{}, ErrTickerNeedsSystemClock
		}
		l := NewTickerLimiter(cfg.TargetPeriod())
		return Setup{Stages: LimiterStages{Limiter: l}, stop: l.Stop}, nil
	case ModeNone:
		return Setup{Stages: LimiterStages{Limiter: NewNoOpLimiter()}}, nil
	default:
		return Setup{}, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}
