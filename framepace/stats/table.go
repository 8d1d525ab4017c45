package stats

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Row is one line of a comparison table.
type Row struct {
	Mode    string
	Summary Summary
}

var header = table.Row{"Mode", "Frames", "FPS", "Mean", "Min", "Max", "P99", "Latency", "Max latency"}

// RenderTable renders a comparison of several runs.
func RenderTable(title string, rows []Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	for _, r := range rows {
		t.AppendRow(summaryRow(r.Mode, r.Summary))
	}
	t.SetColumnConfigs(numericColumns())
	return t.Render()
}

// RenderSummary renders a single run.
func RenderSummary(mode string, s Summary) string {
	return RenderTable("", []Row{{Mode: mode, Summary: s}})
}

func summaryRow(mode string, s Summary) table.Row {
	return table.Row{
		mode,
		s.Frames,
		fmt.Sprintf("%.2f", s.FPS),
		Millis(s.MeanInterval),
		Millis(s.MinInterval),
		Millis(s.MaxInterval),
		Millis(s.P99Interval),
		Millis(s.MeanLatency),
		Millis(s.MaxLatency),
	}
}

func numericColumns() []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(header)-1)
	for i := 2; i <= len(header); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	return configs
}

// Millis formats d as milliseconds with two decimals.
func Millis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}
