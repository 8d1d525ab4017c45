package backend

import (
	"log/slog"
	"time"

	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
)

// Backend is the presentation side of the render loop.
// Backends are responsible for:
// - Presenting each frame's measurements to their specific output
// - Translating platform-specific input events to Actions
// - Handling backend-specific features (reports, log panes)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config Config) error

	// Update presents the previous frame and returns the input events
	// gathered since the last call. frame is nil on the first call.
	Update(frame *stats.Frame) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// InputEvent is an action raised by a backend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Config holds configuration for backends
type Config struct {
	Title     string
	RunID     string
	LogLevel  slog.Level     // Initial level for backends that show logs
	Status    StatusProvider // Optional live state of the loop
}

// Status is the loop state a backend may display.
type Status struct {
	Mode            string
	TargetRate      int
	Period          time.Duration
	SafetyMargin    time.Duration
	Enabled         bool
	WorkloadPercent int
	Summary         stats.Summary
}

// StatusProvider exposes the loop's current Status.
type StatusProvider interface {
	Status() Status
}
