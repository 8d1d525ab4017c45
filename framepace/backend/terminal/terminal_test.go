package terminal

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
)

type fakeStatus struct {
	status backend.Status
	frames []stats.Frame
}

func (f *fakeStatus) Status() backend.Status     { return f.status }
func (f *fakeStatus) Recent(n int) []stats.Frame { return f.frames[:min(n, len(f.frames))] }

func newSimBackend(t *testing.T, status backend.StatusProvider) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.Config{Title: "framepace", Status: status}))
	screen.SetSize(100, 30)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, screen
}

func screenText(screen tcell.Screen) string {
	w, h := screen.Size()
	var sb strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := screen.GetContent(x, y)
			sb.WriteRune(r)
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func TestTerminal_KeyEvents(t *testing.T) {
	tests := []struct {
		name   string
		key    tcell.Key
		r      rune
		action action.Action
	}{
		{name: "space toggles pacing", key: tcell.KeyRune, r: ' ', action: action.PacingToggle},
		{name: "p toggles pacing", key: tcell.KeyRune, r: 'p', action: action.PacingToggle},
		{name: "bracket makes workload heavier", key: tcell.KeyRune, r: ']', action: action.WorkloadHeavier},
		{name: "bracket makes workload lighter", key: tcell.KeyRune, r: '[', action: action.WorkloadLighter},
		{name: "r resets stats", key: tcell.KeyRune, r: 'r', action: action.StatsReset},
		{name: "escape quits", key: tcell.KeyEscape, action: action.Quit},
		{name: "ctrl-c quits", key: tcell.KeyCtrlC, action: action.Quit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, screen := newSimBackend(t, nil)

			screen.InjectKey(tt.key, tt.r, tcell.ModNone)
			events, err := b.Update(nil)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, tt.action, events[0].Action)
			assert.Equal(t, event.Press, events[0].Type)

			events, err = b.Update(nil)
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestTerminal_UnmappedKeyIgnored(t *testing.T) {
	b, screen := newSimBackend(t, nil)
	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)

	events, err := b.Update(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTerminal_LogLevelKeys(t *testing.T) {
	b, screen := newSimBackend(t, nil)
	assert.Equal(t, slog.LevelInfo, b.logLevel.Level())

	screen.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	_, err := b.Update(nil)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, b.logLevel.Level())

	screen.InjectKey(tcell.KeyRune, '-', tcell.ModNone)
	_, err = b.Update(nil)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, b.logLevel.Level())
}

func TestTerminal_RendersStatus(t *testing.T) {
	status := &fakeStatus{
		status: backend.Status{
			Mode:            "two-stage",
			TargetRate:      60,
			Period:          16666 * time.Microsecond,
			SafetyMargin:    500 * time.Microsecond,
			Enabled:         true,
			WorkloadPercent: 100,
			Summary:         stats.Summary{Frames: 10, FPS: 60, MeanInterval: 16666 * time.Microsecond},
		},
		frames: []stats.Frame{{Number: 9, Interval: 16666 * time.Microsecond}},
	}
	b, screen := newSimBackend(t, status)

	slog.Info("hello from the loop")
	_, err := b.Update(&stats.Frame{Number: 9, Interval: 16666 * time.Microsecond, Work: 5 * time.Millisecond})
	require.NoError(t, err)

	text := screenText(screen)
	assert.Contains(t, text, "Pacing: ON")
	assert.Contains(t, text, "mode two-stage")
	assert.Contains(t, text, "60 fps (16.67ms)")
	assert.Contains(t, text, "Frame 9")
	assert.Contains(t, text, "hello from the loop")

	status.status.Enabled = false
	_, err = b.Update(nil)
	require.NoError(t, err)
	assert.Contains(t, screenText(screen), "Pacing: OFF")
}

func TestTerminal_TooSmall(t *testing.T) {
	b, screen := newSimBackend(t, nil)
	screen.SetSize(30, 10)

	_, err := b.Update(nil)
	require.NoError(t, err)
	assert.Contains(t, screenText(screen), "Terminal too small")
}

func TestTerminal_RestoresLogger(t *testing.T) {
	before := slog.Default()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.Config{}))
	assert.NotSame(t, before, slog.Default())
	require.NoError(t, b.Cleanup())
	assert.Same(t, before, slog.Default())
}

func TestTerminal_InitialLogLevel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.Config{LogLevel: slog.LevelDebug}))
	defer func() { _ = b.Cleanup() }()

	assert.Equal(t, slog.LevelDebug, b.logLevel.Level())
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestTerminalImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
}
