package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/backend/headless"
	"github.com/valerio/go-framepace/framepace/backend/terminal"
	"github.com/valerio/go-framepace/framepace/config"
	"github.com/valerio/go-framepace/framepace/loop"
	"github.com/valerio/go-framepace/framepace/stats"
	"github.com/valerio/go-framepace/framepace/timing"
)

func loadConfig(c *cli.Context, extra map[string]any) (*config.Config, error) {
	overrides := flagOverrides(c)
	for k, v := range extra {
		overrides[k] = v
	}
	return config.Load(c.GlobalString("config"), overrides)
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}

	var be backend.Backend
	switch cfg.Backend {
	case config.BackendHeadless:
		report, err := headless.CreateReportConfig(cfg.Report)
		if err != nil {
			return err
		}
		be = headless.New(cfg.Frames, report)
	default:
		be = terminal.New()
	}

	level, err := logLevel(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, *cfg, be, level, os.Stdout)
}

// execute runs the loop described by cfg on be and prints the summary
// table to out once it stops.
func execute(ctx context.Context, cfg config.Config, be backend.Backend, level slog.Level, out io.Writer) error {
	l, closeStages, err := buildLoop(cfg, be)
	if err != nil {
		return err
	}
	defer closeStages()

	runID := uuid.NewString()
	slog.Info("Starting render loop",
		"run_id", runID,
		"mode", cfg.Mode,
		"target_rate", cfg.Pacing.TargetRate,
		"safety_margin", cfg.Pacing.SafetyMargin,
		"backend", cfg.Backend,
		"simulated", cfg.Simulated)

	err = l.Run(ctx, backend.Config{
		Title:    "framepace",
		RunID:    runID,
		LogLevel: level,
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	s := l.Summary()
	slog.Info("Run summary",
		"run_id", runID,
		"frames", l.Frames(),
		"fps", fmt.Sprintf("%.2f", s.FPS),
		"mean_latency", s.MeanLatency)
	fmt.Fprintln(out, stats.RenderSummary(cfg.Mode, s))
	return nil
}

func benchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	rows, err := bench(*cfg)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%d fps, %s workload, %d frames", cfg.Pacing.TargetRate, cfg.Workload.Kind, cfg.Frames)
	fmt.Println(stats.RenderTable(title, rows))
	return nil
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// bench runs every mode that works on a simulated clock for cfg.Frames
// frames and returns one summary row per mode.
func bench(cfg config.Config) ([]stats.Row, error) {
	frames := cfg.Frames
	var rows []stats.Row
	for _, mode := range timing.Modes {
		if mode == timing.ModeTicker {
			continue
		}
		run := cfg
		run.Mode = string(mode)
		run.Simulated = true
		run.Backend = config.BackendHeadless
		run.Frames = frames
		run.Pacing.Enabled = true
		if err := run.Validate(); err != nil {
			return nil, err
		}

		l, closeStages, err := buildLoop(run, headless.New(frames, headless.ReportConfig{}))
		if err != nil {
			return nil, err
		}
		err = l.Run(context.Background(), backend.Config{Title: "framepace bench", RunID: uuid.NewString()})
		closeStages()
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", mode, err)
		}
		rows = append(rows, stats.Row{Mode: run.Mode, Summary: l.Summary()})
	}
	return rows, nil
}

// buildLoop wires the clock, stages and workload described by cfg around be.
// The returned func releases the stages.
func buildLoop(cfg config.Config, be backend.Backend) (*loop.Loop, func(), error) {
	mode, err := timing.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}

	var clock timing.Clock = timing.NewSystemClock()
	if cfg.Simulated {
		clock = timing.NewManualClock(time.Now())
	}

	setup, err := timing.NewSetup(mode, cfg.Pacing, cfg.Buffer, clock)
	if err != nil {
		return nil, nil, err
	}
	work, err := cfg.Workload.Build()
	if err != nil {
		setup.Close()
		return nil, nil, err
	}

	l, err := loop.New(loop.Options{
		Clock:      clock,
		Stages:     setup.Stages,
		Backend:    be,
		Workload:   work,
		Prepare:    cfg.Workload.Prepare,
		Pacer:      setup.Pacer,
		Busy:       !cfg.Simulated,
		Mode:       cfg.Mode,
		TargetRate: cfg.Pacing.TargetRate,
	})
	if err != nil {
		setup.Close()
		return nil, nil, err
	}
	return l, setup.Close, nil
}
