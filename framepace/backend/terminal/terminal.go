package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/backend/terminal/render"
	"github.com/valerio/go-framepace/framepace/input"
	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
)

const (
	minTermWidth  = 60
	minTermHeight = 20
	statusHeight  = 12
	logCapacity   = 100
)

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen     tcell.Screen
	logBuffer  *render.LogBuffer
	logLevel   *slog.LevelVar
	prevLogger *slog.Logger
	config     backend.Config
	eventQueue []backend.InputEvent
	signals    chan os.Signal
}

// New creates a new terminal backend drawing to the real terminal
func New() *Backend {
	return &Backend{}
}

// NewWithScreen creates a terminal backend drawing to screen, which is
// initialised by Init.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Capture logs into the on-screen pane
	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.logLevel = new(slog.LevelVar)
	t.logLevel.Set(config.LogLevel)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// Set up signal handling for graceful shutdown
	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	slog.Info("Terminal backend initialized", "run_id", config.RunID)
	return nil
}

// Update draws the pacing HUD and returns the input gathered since the
// previous call
func (t *Backend) Update(frame *stats.Frame) ([]backend.InputEvent, error) {
	// Poll for input events synchronously
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	select {
	case sig := <-t.signals:
		slog.Info("Received signal to stop", "signal", sig)
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.Quit, Type: event.Press})
	default:
	}

	events := t.eventQueue
	t.eventQueue = nil

	for _, evt := range events {
		switch evt.Action {
		case action.DebugLogLevelIncrease:
			t.changeLogLevel(1)
		case action.DebugLogLevelDecrease:
			t.changeLogLevel(-1)
		}
	}

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.Quit
	return mapping
}

// buildRuneMapping creates the rune mapping from default mappings
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)
	for keyName, act := range input.DefaultKeyMap {
		if keyName == "Space" {
			mapping[' '] = act
			continue
		}
		if r := []rune(keyName); len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	return mapping
}

var (
	keyMapping  = buildKeyMapping()
	runeMapping = buildRuneMapping()
)

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		act, ok = runeMapping[ev.Rune()]
	}
	if !ok {
		return
	}
	slog.Debug("Key event", "action", act)
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel.Level()
	next := oldLevel - slog.Level(4*direction)
	next = min(max(next, slog.LevelDebug), slog.LevelError)
	if next != oldLevel {
		t.logLevel.Set(next)
		slog.Info("Log filter changed", "from", oldLevel, "to", next)
	}
}

func (t *Backend) render(frame *stats.Frame) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		t.drawText(0, termHeight/2, termWidth, fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight), style)
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	plain := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	t.drawText(1, 0, termWidth, fmt.Sprintf(" %s ", t.config.Title), titleStyle)

	var st backend.Status
	if t.config.Status != nil {
		st = t.config.Status.Status()
	}

	y := 2
	pacingStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	pacingLabel := "OFF"
	if st.Enabled {
		pacingStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
		pacingLabel = "ON"
	}
	t.drawText(1, y, termWidth, "Pacing:", plain)
	t.drawText(9, y, termWidth, pacingLabel, pacingStyle.Bold(true))
	t.drawText(14, y, termWidth, fmt.Sprintf("mode %s", st.Mode), plain)
	y++

	t.drawText(1, y, termWidth, fmt.Sprintf("Target:   %d fps (%s)  margin %s",
		st.TargetRate, stats.Millis(st.Period), stats.Millis(st.SafetyMargin)), plain)
	y++

	s := st.Summary
	t.drawText(1, y, termWidth, fmt.Sprintf("Achieved: %.2f fps  mean %s  min %s  max %s  p99 %s",
		s.FPS, stats.Millis(s.MeanInterval), stats.Millis(s.MinInterval), stats.Millis(s.MaxInterval), stats.Millis(s.P99Interval)), plain)
	y++

	t.drawText(1, y, termWidth, fmt.Sprintf("Latency:  mean %s  max %s", stats.Millis(s.MeanLatency), stats.Millis(s.MaxLatency)), plain)
	y++

	t.drawText(1, y, termWidth, fmt.Sprintf("Workload: %d%%", st.WorkloadPercent), plain)
	y++

	if frame != nil {
		p := frame.Pacing
		t.drawText(1, y, termWidth, fmt.Sprintf("Frame %d: interval %s  work %s  latency %s",
			frame.Number, stats.Millis(frame.Interval), stats.Millis(frame.Work), stats.Millis(frame.Latency())), plain)
		y++
		t.drawText(1, y, termWidth, fmt.Sprintf("Pacer:    exact sleep %s  render %s  pre-sleep %s",
			stats.Millis(p.ExactSleep), stats.Millis(p.RenderTime), stats.Millis(p.EstimatedSleep)), plain)
	}
	y += 2

	t.drawSparkline(1, y, termWidth-2, st.Period)

	t.drawLogs(statusHeight, termWidth, termHeight-1)

	help := " SPACE=toggle pacing  [/]=workload  R=reset stats  +/-=log filter  Q=quit "
	t.drawText(0, termHeight-1, termWidth, help, plain)
}

func (t *Backend) drawSparkline(x, y, width int, period time.Duration) {
	if t.config.Status == nil || width <= 0 {
		return
	}
	type recentSource interface {
		Recent(n int) []stats.Frame
	}
	src, ok := t.config.Status.(recentSource)
	if !ok {
		return
	}

	recent := src.Recent(width)
	values := make([]time.Duration, len(recent))
	for i, f := range recent {
		// oldest on the left
		values[len(recent)-1-i] = f.Interval
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	for i, r := range render.Sparkline(values, 2*period) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (t *Backend) drawLogs(top, width, bottom int) {
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	t.drawText(1, top, width, fmt.Sprintf(" Logs [%s] ", t.logLevel.Level()), titleStyle)

	rows := bottom - top - 1
	if rows <= 0 {
		return
	}
	entries := t.logBuffer.GetRecent(rows)
	for i, entry := range entries {
		style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
		switch {
		case entry.Level >= slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed)
		case entry.Level >= slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case entry.Level < slog.LevelInfo:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		t.drawText(1, top+1+i, width, render.FormatLogEntry(entry), style)
	}
}

func (t *Backend) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	for _, ch := range text {
		if x >= maxWidth {
			return
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
