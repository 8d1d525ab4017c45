package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "framepace"
	app.Description = "A frame pacer with an exact limiter and a forward estimator"
	app.Usage = "framepace [global options] command [command options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Path to a YAML configuration file",
			EnvVar: "FRAMEPACE_CONFIG",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
	}
	app.Before = setupLogging
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Run the paced render loop",
			Flags:  append(pacingFlags(), runFlags()...),
			Action: runCommand,
		},
		{
			Name:   "bench",
			Usage:  "Compare every pacing mode on a simulated clock",
			Flags:  pacingFlags(),
			Action: benchCommand,
		},
		{
			Name:   "config",
			Usage:  "Print the effective configuration as YAML",
			Flags:  append(pacingFlags(), runFlags()...),
			Action: configCommand,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running framepace", "error", err)
		os.Exit(1)
	}
}

func logLevel(c *cli.Context) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.GlobalString("log-level"))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.GlobalString("log-level"), err)
	}
	return level, nil
}

func setupLogging(c *cli.Context) error {
	level, err := logLevel(c)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

func pacingFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "rate",
			Usage: "Target frame rate in frames per second",
		},
		cli.DurationFlag{
			Name:  "margin",
			Usage: "Safety margin subtracted from the forward estimator sleep",
		},
		cli.DurationFlag{
			Name:  "buffer",
			Usage: "Early wake-up buffer of the buffered limiter",
		},
		cli.StringFlag{
			Name:  "workload",
			Usage: "Synthetic render cost: constant, uniform or step",
		},
		cli.DurationFlag{
			Name:  "prepare",
			Usage: "Fixed cost spent before the exact limiter each frame",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run (headless and bench)",
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "mode",
			Usage: "Pacing mode: two-stage, exact-only, buffered, ticker or none",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a terminal interface",
		},
		cli.BoolFlag{
			Name:  "simulated",
			Usage: "Run on a simulated clock instead of sleeping",
		},
		cli.BoolFlag{
			Name:  "disable-pacing",
			Usage: "Start with pacing disabled",
		},
		cli.StringFlag{
			Name:  "report",
			Usage: "Write a YAML summary here when a headless run finishes",
		},
	}
}

// flagOverrides maps the flags set on the command line to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	set := func(flag, key string, value any) {
		if c.IsSet(flag) {
			overrides[key] = value
		}
	}
	set("rate", "pacing.target_rate", c.Int("rate"))
	set("margin", "pacing.safety_margin", c.Duration("margin"))
	set("buffer", "buffer", c.Duration("buffer"))
	set("workload", "workload.kind", c.String("workload"))
	set("prepare", "workload.prepare", c.Duration("prepare"))
	set("frames", "frames", c.Int("frames"))
	set("mode", "mode", c.String("mode"))
	set("simulated", "simulated", c.Bool("simulated"))
	set("report", "report", c.String("report"))
	if c.IsSet("headless") && c.Bool("headless") {
		overrides["backend"] = "headless"
	}
	if c.IsSet("disable-pacing") && c.Bool("disable-pacing") {
		overrides["pacing.enabled"] = false
	}
	return overrides
}
