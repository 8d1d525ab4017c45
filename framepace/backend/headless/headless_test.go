package headless_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/backend/headless"
	"github.com/valerio/go-framepace/framepace/input/action"
	"github.com/valerio/go-framepace/framepace/input/event"
	"github.com/valerio/go-framepace/framepace/stats"
)

type fixedStatus backend.Status

func (f fixedStatus) Status() backend.Status { return backend.Status(f) }

func TestHeadlessBackend(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		h := headless.New(3, headless.ReportConfig{})

		err := h.Init(backend.Config{Title: "Test"})
		assert.NoError(t, err)

		// First call carries no frame yet
		events, err := h.Update(nil)
		assert.NoError(t, err)
		assert.Empty(t, events)

		frame := &stats.Frame{}
		for i := 0; i < 3; i++ {
			events, err := h.Update(frame)
			assert.NoError(t, err)

			if i < 2 {
				// Should not quit before reaching max frames
				assert.Empty(t, events)
			} else {
				// Should send quit event on last frame
				require.Len(t, events, 1)
				assert.Equal(t, action.Quit, events[0].Action)
				assert.Equal(t, event.Press, events[0].Type)
			}
		}
		assert.Equal(t, 3, h.FrameCount())

		// Nothing more after completion
		events, err = h.Update(frame)
		assert.NoError(t, err)
		assert.Empty(t, events)

		assert.NoError(t, h.Cleanup())
	})

	t.Run("rejects non-positive frame count", func(t *testing.T) {
		h := headless.New(0, headless.ReportConfig{})
		assert.Error(t, h.Init(backend.Config{}))
	})

	t.Run("writes report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "run.yaml")
		report, err := headless.CreateReportConfig(path)
		require.NoError(t, err)
		assert.True(t, report.Enabled)

		h := headless.New(1, report)
		status := fixedStatus{
			Mode:         "two-stage",
			TargetRate:   60,
			Period:       16666 * time.Microsecond,
			SafetyMargin: 500 * time.Microsecond,
			Enabled:      true,
			Summary:      stats.Summary{Frames: 1},
		}
		require.NoError(t, h.Init(backend.Config{RunID: "run-1", Status: status}))

		events, err := h.Update(&stats.Frame{})
		require.NoError(t, err)
		assert.Len(t, events, 1)

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, "run-1", got["run_id"])
		assert.Equal(t, 1, got["frames"])
		assert.Equal(t, "two-stage", got["mode"])
		assert.Equal(t, 60, got["target_rate"])
		assert.Equal(t, "16.666ms", got["period"])
	})

	t.Run("report disabled without path", func(t *testing.T) {
		report, err := headless.CreateReportConfig("")
		require.NoError(t, err)
		assert.False(t, report.Enabled)
	})
}

func TestHeadlessImplementsBackend(t *testing.T) {
	// Compile-time check that headless.Backend implements backend.Backend
	var _ backend.Backend = (*headless.Backend)(nil)
}
