package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
)

// Backend implements the Backend interface for automated runs and benchmarks
type Backend struct {
	config     backend.Config
	frameCount int
	maxFrames  int
	report     ReportConfig
	progress   rate.Sometimes
	done       bool
}

// ReportConfig holds configuration for the end-of-run report
type ReportConfig struct {
	Enabled bool
	Path    string // YAML file the summary is written to
}

// Report is the YAML document written at the end of a headless run.
type Report struct {
	RunID           string        `yaml:"run_id"`
	Frames          int           `yaml:"frames"`
	Mode            string        `yaml:"mode"`
	TargetRate      int           `yaml:"target_rate"`
	Period          time.Duration `yaml:"period"`
	SafetyMargin    time.Duration `yaml:"safety_margin"`
	Enabled         bool          `yaml:"enabled"`
	WorkloadPercent int           `yaml:"workload_percent"`
	Summary         stats.Summary `yaml:"summary"`
}

func New(maxFrames int, report ReportConfig) *Backend {
	return &Backend{
		maxFrames: maxFrames,
		report:    report,
		progress:  rate.Sometimes{First: 1, Interval: time.Second},
	}
}

func (h *Backend) Init(config backend.Config) error {
	if h.maxFrames <= 0 {
		return fmt.Errorf("headless mode requires a positive frame count, got %d", h.maxFrames)
	}
	h.config = config

	slog.Info("Running headless mode",
		"run_id", config.RunID,
		"frames", h.maxFrames,
		"report", h.report.Path)

	return nil
}

// Update counts presented frames and requests quit once maxFrames is reached
func (h *Backend) Update(frame *stats.Frame) ([]backend.InputEvent, error) {
	if frame == nil || h.done {
		return nil, nil
	}

	h.frameCount++

	// Log progress periodically
	h.progress.Do(func() {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames,
			"interval", frame.Interval, "latency", frame.Latency())
	})

	if h.frameCount < h.maxFrames {
		return nil, nil
	}

	h.done = true
	slog.Info("Headless execution completed", "frames", h.frameCount, "run_id", h.config.RunID)

	if h.report.Enabled {
		if err := h.writeReport(); err != nil {
			return nil, err
		}
	}

	// Signal completion via quit event
	return []backend.InputEvent{{Action: action.Quit, Type: event.Press}}, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

func (h *Backend) FrameCount() int {
	return h.frameCount
}

// CreateReportConfig creates a report configuration from CLI parameters,
// making sure the parent directory exists
func CreateReportConfig(path string) (ReportConfig, error) {
	config := ReportConfig{
		Enabled: path != "",
		Path:    path,
	}
	if !config.Enabled {
		return config, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return config, fmt.Errorf("failed to create report directory: %w", err)
	}
	return config, nil
}

func (h *Backend) writeReport() error {
	report := Report{RunID: h.config.RunID, Frames: h.FrameCount()}
	if h.config.Status != nil {
		st := h.config.Status.Status()
		report.Mode = st.Mode
		report.TargetRate = st.TargetRate
		report.Period = st.Period
		report.SafetyMargin = st.SafetyMargin
		report.Enabled = st.Enabled
		report.WorkloadPercent = st.WorkloadPercent
		report.Summary = st.Summary
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(h.report.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Saved run report", "path", h.report.Path)
	return nil
}
