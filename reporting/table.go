package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

var _ runner.EventSink = (*SummaryTable)(nil)

// SummaryTable renders every reported result as a table once the run is over.
type SummaryTable struct {
	nopSink
	w       io.Writer
	palette Palette
}

// NewSummaryTable creates a table sink writing to w.
func NewSummaryTable(w io.Writer, palette Palette) *SummaryTable {
	return &SummaryTable{w: w, palette: palette}
}

func (s *SummaryTable) OnFinish(result *runner.Result) error {
	_, err := fmt.Fprintln(s.w, RenderTable(result, s.palette.Enabled()))
	return err
}

// RenderTable formats the results of a run as a table.
func RenderTable(result *runner.Result, colored bool) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(result.Summary.Elapsed)))

	t.AppendHeader(table.Row{"#", "Test", "Kind", "Result", "Duration", "Details"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Details", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, ev := range result.Events {
		if !ev.Disposition.Reported() {
			continue
		}
		t.AppendRow(table.Row{
			ev.Index,
			ev.Name,
			ev.Kind.String(),
			resultString(ev.Outcome),
			formatDuration(ev.Outcome.Elapsed),
			details(ev.Outcome),
		})
	}

	s := result.Summary
	t.AppendFooter(table.Row{
		"TOTAL",
		s.Total,
		"",
		fmt.Sprintf("%d passed, %d failed, %d ignored, %d measured", s.Passed, s.Failed, s.Ignored, s.Measured),
		formatDuration(s.Elapsed),
		fmt.Sprintf("%d filtered out", s.FilteredOut),
	})

	switch {
	case !colored:
		t.SetStyle(table.StyleLight)
	case s.Success():
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	return t.Render()
}

func resultString(o types.Outcome) string {
	switch o.Kind {
	case types.OutcomePassed:
		return "ok"
	case types.OutcomeFailed:
		return "FAILED"
	case types.OutcomeMeasured:
		return "bench"
	default:
		return o.Kind.String()
	}
}

func details(o types.Outcome) string {
	switch o.Kind {
	case types.OutcomeFailed:
		// The failures block has the full message.
		return firstLine(o.Message)
	case types.OutcomeMeasured:
		return fmt.Sprintf("%d ns/iter (+/- %d)", o.Measurement.Average, o.Measurement.Variance)
	default:
		return ""
	}
}

// formatDuration formats a duration as seconds with one decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
