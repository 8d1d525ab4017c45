// Package loop drives a render loop around the pacing stages: poll input,
// prepare, Exact Limiter, render, present, Forward Estimator.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/input"
	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
	"github.com/valerio/go-framepace/framepace/timing"
	"github.com/valerio/go-framepace/framepace/workload"
)

// Options configures a Loop. Clock, Stages and Backend are required.
type Options struct {
	Clock   timing.Clock
	Stages  timing.Stages
	Backend backend.Backend
	// Workload is the render cost between the two stages. Nil means none.
	Workload workload.Workload
	// Prepare is a fixed cost spent before the Exact Limiter each frame.
	Prepare time.Duration
	// Pacer, when set, is the pacer behind Stages; it receives the
	// pacing toggle and its sample is recorded per frame.
	Pacer    *timing.Pacer
	Recorder *stats.Recorder
	// Busy spins on the clock to perform work instead of sleeping on it.
	Busy bool
	// Mode is a label reported to the backend.
	Mode       string
	TargetRate int
	Input      *input.Manager
}

// Loop is the render loop driver. It runs on a single goroutine and owns the
// pacing stages it drives.
type Loop struct {
	opts     Options
	clock    timing.Clock
	stages   timing.Stages
	backend  backend.Backend
	work     workload.Workload
	scaled   *workload.Scaled
	recorder *stats.Recorder
	input    *input.Manager

	frame       int
	last        *stats.Frame
	prevExactAt time.Time
	quit        bool
}

var (
	errMissingOption   = errors.New("loop: clock, stages and backend are required")
	errBusyManualClock = errors.New("loop: busy work needs a clock that advances on its own")
)

func New(opts Options) (*Loop, error) {
	if opts.Clock == nil || opts.Stages == nil || opts.Backend == nil {
		return nil, errMissingOption
	}
	if _, manual := opts.Clock.(*timing.ManualClock); manual && opts.Busy {
		return nil, errBusyManualClock
	}

	l := &Loop{
		opts:     opts,
		clock:    opts.Clock,
		stages:   opts.Stages,
		backend:  opts.Backend,
		recorder: opts.Recorder,
		input:    opts.Input,
	}
	if l.recorder == nil {
		l.recorder = stats.NewRecorder(stats.DefaultCapacity)
	}
	if l.input == nil {
		l.input = input.NewManager(input.DefaultDebounce, opts.Clock.Now)
	}
	if opts.Workload != nil {
		l.scaled = workload.NewScaled(opts.Workload)
		l.work = l.scaled
	}
	l.bindActions()
	return l, nil
}

func (l *Loop) bindActions() {
	l.input.On(action.Quit, event.Press, func() {
		l.quit = true
	})
	l.input.On(action.PacingToggle, event.Press, func() {
		if l.opts.Pacer == nil {
			slog.Warn("Pacing toggle unsupported in this mode", "mode", l.opts.Mode)
			return
		}
		enabled := !l.opts.Pacer.Enabled()
		l.opts.Pacer.SetEnabled(enabled)
		slog.Info("Pacing toggled", "enabled", enabled)
	})
	l.input.On(action.WorkloadHeavier, event.Press, func() {
		if l.scaled != nil {
			slog.Info("Workload scaled", "percent", l.scaled.Heavier())
		}
	})
	l.input.On(action.WorkloadLighter, event.Press, func() {
		if l.scaled != nil {
			slog.Info("Workload scaled", "percent", l.scaled.Lighter())
		}
	})
	l.input.On(action.StatsReset, event.Press, func() {
		l.recorder.Reset()
		l.prevExactAt = time.Time{}
		slog.Info("Stats reset")
	})
}

// Run initialises the backend and steps frames until ctx is done, the
// backend asks to quit, or an error occurs. The backend is always cleaned up.
func (l *Loop) Run(ctx context.Context, config backend.Config) (err error) {
	if config.Status == nil {
		config.Status = l
	}
	if err := l.backend.Init(config); err != nil {
		return fmt.Errorf("backend init: %w", err)
	}
	defer func() {
		if cerr := l.backend.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("backend cleanup: %w", cerr)
		}
	}()

	// Start-up time spent in Init is not part of the first frame.
	if r, ok := l.stages.(timing.Resetter); ok {
		r.Reset()
	}

	slog.Info("Render loop started", "mode", l.opts.Mode, "target_rate", l.opts.TargetRate, "run_id", config.RunID)

	for {
		// Sleeps inside the stages are not interruptible; shutdown is
		// checked once per frame.
		if err := ctx.Err(); err != nil {
			slog.Info("Render loop cancelled", "frames", l.frame)
			return nil
		}
		quit, err := l.Step()
		if err != nil {
			return err
		}
		if quit {
			slog.Info("Render loop finished", "frames", l.frame)
			return nil
		}
	}
}

// Step runs one frame. It reports quit when an input event asked the loop
// to stop, in which case no frame work was done.
func (l *Loop) Step() (quit bool, err error) {
	inputAt := l.clock.Now()
	events, err := l.backend.Update(l.last)
	if err != nil {
		return false, fmt.Errorf("backend update: %w", err)
	}
	for _, evt := range events {
		l.input.Trigger(evt.Action, evt.Type)
	}
	if l.quit {
		return true, nil
	}

	l.perform(l.opts.Prepare)

	l.stages.ExactLimiterTick()
	exactAt := l.clock.Now()

	var cost time.Duration
	if l.work != nil {
		cost = l.work.Cost(l.frame)
	}
	l.perform(cost)
	presentedAt := l.clock.Now()

	f := &stats.Frame{
		Number:      l.frame,
		InputAt:     inputAt,
		ExactAt:     exactAt,
		PresentedAt: presentedAt,
		Work:        cost,
	}
	if !l.prevExactAt.IsZero() {
		f.Interval = exactAt.Sub(l.prevExactAt)
	}
	l.prevExactAt = exactAt

	l.stages.ForwardEstimatorTick()

	if l.opts.Pacer != nil {
		f.Pacing = l.opts.Pacer.Sample()
		f.Enabled = l.opts.Pacer.Enabled()
		slog.Debug("Frame paced",
			"frame", f.Number,
			"frame_time", f.Pacing.FrameTime,
			"render_time", f.Pacing.RenderTime,
			"estimated_sleep", f.Pacing.EstimatedSleep,
			"exact_sleep", f.Pacing.ExactSleep)
	}

	l.recorder.Add(*f)
	l.last = f
	l.frame++
	return false, nil
}

// perform spends d of work time on the loop goroutine.
func (l *Loop) perform(d time.Duration) {
	if d <= 0 {
		return
	}
	if !l.opts.Busy {
		l.clock.Sleep(d)
		return
	}
	start := l.clock.Now()
	for l.clock.Now().Sub(start) < d {
		// burn CPU like a real render stage would.
	}
}

// Frames is the number of frames completed.
func (l *Loop) Frames() int {
	return l.frame
}

func (l *Loop) Summary() stats.Summary {
	return l.recorder.Summary()
}

// Recent returns up to n of the most recent frames, newest first.
func (l *Loop) Recent(n int) []stats.Frame {
	return l.recorder.Recent(n)
}

// Status implements backend.StatusProvider.
func (l *Loop) Status() backend.Status {
	st := backend.Status{
		Mode:       l.opts.Mode,
		TargetRate: l.opts.TargetRate,
		Period:     timing.PeriodFor(l.opts.TargetRate),
		Summary:    l.recorder.Summary(),
	}
	if l.opts.Pacer != nil {
		st.Enabled = l.opts.Pacer.Enabled()
		st.SafetyMargin = l.opts.Pacer.SafetyMargin()
	} else {
		st.Enabled = l.opts.Mode != "none"
	}
	if l.scaled != nil {
		st.WorkloadPercent = l.scaled.Percent()
	}
	return st
}
